package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"click-war/internal/logger"
)

// ChangeFunc is invoked with the current value when a subscription starts
// and then with the latest value each time a poll finds it changed. At most
// one call is made per poll interval, so values written and overwritten
// between two polls are never seen. Calls for one subscription never overlap.
type ChangeFunc func(Snapshot)

// Subscription is a registered ChangeFunc.
type Subscription struct {
	ref    Reference
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	inCallback atomic.Bool
}

// Subscribe reads ref once and registers fn for it. The initial read is
// synchronous, so an invalid reference or an unreachable database fails
// here. After that ref is polled every poll interval with a conditional read;
// several writes between two polls are delivered as one call carrying the
// latest value. Later read errors are logged and the subscription keeps
// polling.
// The subscription ends on Unsubscribe or when ctx is canceled.
func (c *Client) Subscribe(ctx context.Context, ref Reference, fn ChangeFunc) (*Subscription, error) {
	if ref == nil {
		return nil, ErrNilReference
	}
	if fn == nil {
		return nil, fmt.Errorf("subscribe %s: change function is nil", ref.Path())
	}

	var raw json.RawMessage
	etag, err := ref.GetWithETag(ctx, &raw)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", ref.Path(), err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		ref:    ref,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	log := c.log.With("path", ref.Path())
	log.Debug().Msg("subscribed")

	go s.run(subCtx, c.pollInterval, etag, NewSnapshot(ref.Path(), raw), fn, log)
	return s, nil
}

func (s *Subscription) run(ctx context.Context, interval time.Duration, etag string, initial Snapshot, fn ChangeFunc, log *logger.Logger) {
	defer close(s.done)
	defer func() {
		log.Debug().Msg("unsubscribed")
	}()

	if !s.deliver(ctx, fn, initial) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var raw json.RawMessage
		changed, next, err := s.ref.GetIfChanged(ctx, etag, &raw)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("poll subscription")
			continue
		}
		if !changed {
			continue
		}
		etag = next
		if !s.deliver(ctx, fn, NewSnapshot(s.ref.Path(), raw)) {
			return
		}
	}
}

func (s *Subscription) deliver(ctx context.Context, fn ChangeFunc, snap Snapshot) bool {
	if ctx.Err() != nil {
		return false
	}
	s.inCallback.Store(true)
	defer s.inCallback.Store(false)
	fn(snap)
	return true
}

// Path returns the path the subscription watches.
func (s *Subscription) Path() string {
	return s.ref.Path()
}

// Done is closed once the subscription has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe stops the subscription. It is safe to call more than once and
// from inside the ChangeFunc. Once it returns no further call to the
// ChangeFunc starts; other subscriptions on the same reference are
// unaffected.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
	if s.inCallback.Load() {
		return
	}
	<-s.done
}
