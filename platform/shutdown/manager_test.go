package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRun_ReverseOrder(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var order []string
	m.Add("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.Add("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	m.Run()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("Expected reverse registration order [second first], got %v", order)
	}
}

func TestRun_FailureDoesNotBlockOthers(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	ran := false
	m.Add("survivor", func(ctx context.Context) error {
		ran = true
		return nil
	})
	m.Add("failing", func(ctx context.Context) error {
		return errors.New("flush failed")
	})

	m.Run()

	if !ran {
		t.Error("Expected remaining hooks to run after a failure")
	}
}

func TestRun_HookTimeoutIsBounded(t *testing.T) {
	m := New(50*time.Millisecond, zap.NewNop())

	m.Add("hanging", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not complete within bounded time")
	}
}

func TestClosePool_Timeout(t *testing.T) {
	hook := ClosePool(blockingPool{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := hook(ctx); err == nil {
		t.Error("Expected timeout error from hanging pool close")
	}
}

type blockingPool struct{}

func (blockingPool) Close() { select {} }
