package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_StopsOnSuccess(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	result, err := Do(ctx, Policy{MaxAttempts: 3, Delay: time.Millisecond}, func(context.Context) (string, error) {
		attempts++
		return "ok", nil
	}, func(s string, err error) bool {
		return err != nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want %q", result, "ok")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDo_ExhaustsAttemptsWithFixedDelay(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	delay := 20 * time.Millisecond

	start := time.Now()
	_, err := Do(ctx, Policy{MaxAttempts: 3, Delay: delay}, func(context.Context) (*struct{}, error) {
		attempts++
		return nil, nil
	}, func(v *struct{}, err error) bool {
		// Retry while the lookup keeps coming back empty.
		return v == nil && err == nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	// Two sleeps between three attempts.
	if elapsed < 2*delay {
		t.Errorf("elapsed = %v, want at least %v", elapsed, 2*delay)
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("store unavailable")

	_, err := Do(ctx, Policy{MaxAttempts: 2, Delay: time.Millisecond}, func(context.Context) (int, error) {
		return 0, wantErr
	}, func(int, error) bool {
		return true
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestDo_ContextCancelAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Minute}, func(context.Context) (int, error) {
		attempts++
		return 0, nil
	}, func(int, error) bool {
		return true
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestSessionLookupPolicy(t *testing.T) {
	if SessionLookup.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", SessionLookup.MaxAttempts)
	}
	if SessionLookup.Delay != 500*time.Millisecond {
		t.Errorf("Delay = %v, want 500ms", SessionLookup.Delay)
	}
}
