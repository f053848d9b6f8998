package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// childSet tracks the children of a started service map so the aggregate's
// teardown can close their loops. It is touched only from the aggregate's
// own loop goroutine (the start/stop functions and onClose all run there).
type childSet struct {
	children map[string]*Handle
}

func (cs *childSet) closeAll() {
	for _, child := range cs.children {
		child.Close()
	}
	cs.children = nil
}

// NewMap composes named services into a single service: starting the
// aggregate constructs and starts every child concurrently, stopping it
// stops them concurrently, and asks route to a child by its name:
//
//	h := service.NewMap(map[string]service.Spec{
//	    "db":    dbSpec,
//	    "cache": cacheSpec,
//	})
//	err := h.Start(ctx, cfg)        // both children start concurrently
//	v, err := h.Ask(ctx, "db", ...) // delegates to the "db" child
//
// The aggregate is an ordinary service, so maps nest: use [MapSpec] to
// embed one service map as a child of another.
func NewMap(specs map[string]Spec) *Handle {
	tracker := &childSet{}
	return newHandle(mapSpec(specs, tracker), tracker.closeAll)
}

// MapSpec returns the Spec of an aggregate over named child specs, for
// nesting a service map inside another map. Most callers want [NewMap].
func MapSpec(specs map[string]Spec) Spec {
	return mapSpec(specs, &childSet{})
}

func mapSpec(specs map[string]Spec, tracker *childSet) Spec {
	key := fmt.Sprintf("service-map-%s", gonanoid.Must(8))
	log := slog.Default().With(slog.String("service", key))

	return Spec{
		Key: key,

		// Start all children concurrently and join. On any failure the
		// siblings that did start are stopped again (best effort), every
		// child actor built for this attempt is torn down, and the joined
		// child errors surface; the aggregate stays stopped.
		Start: func(config any) (any, error) {
			children := make(map[string]*Handle, len(specs))
			for name, cs := range specs {
				children[name] = New(cs)
			}

			ctx := context.Background()
			var (
				g       errgroup.Group
				mu      sync.Mutex
				started []*Handle
				errs    []error
			)
			for name, child := range children {
				g.Go(func() error {
					if err := child.Start(ctx, config); err != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("start child %q: %w", name, err))
						mu.Unlock()
						return err
					}
					mu.Lock()
					started = append(started, child)
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				for _, child := range started {
					if err := child.Stop(ctx); err != nil {
						log.Warn("rollback stop failed",
							slog.String("child", child.Key()),
							slog.Any("error", err))
					}
				}
				for _, child := range children {
					child.Close()
				}
				return nil, errors.Join(errs...)
			}

			tracker.children = children
			return children, nil
		},

		// Stop all children concurrently, best effort: individual failures
		// are logged and swallowed. The child loops are torn down; a later
		// start builds fresh children.
		Stop: func(instance any) error {
			children, ok := instance.(map[string]*Handle)
			if !ok {
				return nil
			}
			ctx := context.Background()
			var g errgroup.Group
			for name, child := range children {
				g.Go(func() error {
					if err := child.Stop(ctx); err != nil {
						log.Warn("child stop failed",
							slog.String("child", name),
							slog.Any("error", err))
					}
					return nil
				})
			}
			_ = g.Wait()
			tracker.closeAll()
			return nil
		},

		// Route to the child named by the first argument, delegating the
		// remaining arguments to its receive handler.
		Receive: func(instance any, args ...any) (any, error) {
			children, _ := instance.(map[string]*Handle)
			if len(args) == 0 {
				return nil, fmt.Errorf("service map %s: missing child name: %w", key, ErrServiceNotFound)
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("service map %s: child %v: %w", key, args[0], ErrServiceNotFound)
			}
			child, ok := children[name]
			if !ok {
				return nil, fmt.Errorf("service map %s: child %q: %w", key, name, ErrServiceNotFound)
			}
			return child.Ask(context.Background(), args[1:]...)
		},
	}
}
