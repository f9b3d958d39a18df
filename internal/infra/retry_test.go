package infra

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry() = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return errors.New("still down")
	})
	if err == nil || err.Error() != "still down" {
		t.Errorf("WithRetry() = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	base := errors.New("unauthorized")
	err := WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return Permanent(base)
	})
	if !errors.Is(err, base) {
		t.Errorf("WithRetry() = %v, want wrapped %v", err, base)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}, func() error {
		calls++
		cancel()
		return errors.New("temporary")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusRequestTimeout, false},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		err := StatusError("test", tt.status, []byte("body"))
		if IsPermanent(err) != tt.permanent {
			t.Errorf("status %d: permanent = %v, want %v", tt.status, IsPermanent(err), tt.permanent)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
			t.Errorf("status %d: error %v does not carry the status", tt.status, err)
		}
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
