package llm

import (
	"context"
	"time"
)

// throttle paces outbound engine calls with a token bucket. A nil throttle
// is valid and never blocks, which is how rate limiting is switched off.
type throttle struct {
	slots chan struct{}
	done  chan struct{}
}

func newThrottle(perSecond float64, burst int) *throttle {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	t := &throttle{
		slots: make(chan struct{}, burst),
		done:  make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		t.slots <- struct{}{}
	}
	go t.refill(time.Duration(float64(time.Second) / perSecond))
	return t
}

func (t *throttle) refill(every time.Duration) {
	if every <= 0 {
		every = time.Millisecond
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-tick.C:
		}
		select {
		case t.slots <- struct{}{}:
		default:
		}
	}
}

// Wait blocks until a slot frees up, the context ends, or the throttle is
// stopped.
func (t *throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	select {
	case <-t.slots:
		return nil
	case <-t.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *throttle) Stop() {
	if t == nil {
		return
	}
	close(t.done)
}
