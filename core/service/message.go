package service

// result carries the outcome of one message through its reply slot.
type result struct {
	value any
	err   error
}

// replySlot is a single-use reply channel. Capacity 1 guarantees delivery
// never blocks the loop; a slot abandoned by a timed-out caller is simply
// reclaimed by the GC. The slot is never closed (only the loop sends).
type replySlot chan result

func newReplySlot() replySlot { return make(replySlot, 1) }

func (s replySlot) deliver(value any, err error) {
	s <- result{value: value, err: err}
}

// message is the closed set of requests a service actor understands.
// Dispatch is an exhaustive type switch in the loop.
type message interface {
	slot() replySlot
}

type startMsg struct {
	config any
	reply  replySlot
}

type stopMsg struct {
	reply replySlot
}

type receiveMsg struct {
	args  []any
	reply replySlot
}

func (m startMsg) slot() replySlot   { return m.reply }
func (m stopMsg) slot() replySlot    { return m.reply }
func (m receiveMsg) slot() replySlot { return m.reply }
