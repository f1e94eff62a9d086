package conveyor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCompletionResolvesOnce(t *testing.T) {
	c := newCompletion()
	if c.Settled() || c.Err() != nil || c.Result() != nil {
		t.Fatalf("a new completion must be pending")
	}
	if !c.resolve("first", nil) {
		t.Fatalf("first resolve should settle")
	}
	if c.resolve("second", errors.New("late")) {
		t.Fatalf("second resolve must be ignored")
	}
	result, err := c.Wait(context.Background())
	if result != "first" || err != nil {
		t.Fatalf("unexpected outcome %v %v", result, err)
	}
}

func TestCompletionWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := newCompletion().Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	if !Join().Settled() || !Join(nil, nil).Settled() {
		t.Fatalf("joining nothing should settle immediately")
	}
	single := newCompletion()
	if Join(nil, single) != single {
		t.Fatalf("joining one completion should return it")
	}
	if !Join(Resolved(), Resolved()).Settled() {
		t.Fatalf("joining settled completions should settle immediately")
	}

	boom := errors.New("boom")
	a, b := newCompletion(), newCompletion()
	joined := Join(a, b)
	a.resolve(nil, nil)
	if joined.Settled() {
		t.Fatalf("join must wait for every part")
	}
	b.resolve(nil, boom)
	if _, err := joined.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := Join(Rejected(boom), Resolved()).Err(); !errors.Is(err, boom) {
		t.Fatalf("expected rejected part to fail the join, got %v", err)
	}
}
