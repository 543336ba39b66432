package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_StopsOnFirstSuccess(t *testing.T) {
	policy := Fixed(5, 0)

	calls := 0
	err := policy.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt == 2 {
			return nil
		}
		return errors.New("transient")
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAndReturnsLastError(t *testing.T) {
	policy := Fixed(3, 0)

	calls := 0
	wantErr := errors.New("always fails")
	err := policy.Do(context.Background(), func(int) error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected exactly max attempts (3) calls, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	policy := Fixed(3, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	calls := 0
	err := policy.Do(ctx, func(int) error {
		calls++
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestExponential_Backoff(t *testing.T) {
	policy := Exponential(4, 100*time.Millisecond, 0)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := policy.Backoff(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestDo_ZeroAttemptsStillRunsOnce(t *testing.T) {
	policy := Policy{MaxAttempts: 0}

	calls := 0
	_ = policy.Do(context.Background(), func(int) error {
		calls++
		return errors.New("fail")
	})

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}
