package llm

import (
	"context"
	"testing"
	"time"
)

func TestThrottleNilNeverBlocks(t *testing.T) {
	var tr *throttle
	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("nil throttle: %v", err)
	}
	tr.Stop()
}

func TestThrottleBurstThenRefill(t *testing.T) {
	tr := newThrottle(50, 2)
	defer tr.Stop()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := tr.Wait(ctx); err != nil {
			t.Fatalf("burst slot %d: %v", i, err)
		}
	}
	// bucket drained; the next slot comes from the refill loop
	if err := tr.Wait(ctx); err != nil {
		t.Fatalf("refilled slot: %v", err)
	}
}

func TestThrottleWaitHonorsContext(t *testing.T) {
	tr := newThrottle(0.001, 1)
	defer tr.Stop()
	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("burst slot: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tr.Wait(ctx); err == nil {
		t.Fatal("expected a context error once the bucket is empty")
	}
}
