package netpolicy

import (
	"context"
	"errors"
	"testing"
	"time"
)

// noSleeper makes ExecuteWithRetry tests run instantly regardless of the
// computed backoff.
type noSleeper struct{ calls int }

func (s *noSleeper) Sleep(ctx context.Context, d time.Duration) { s.calls++ }

func TestBackoffClampedToBaseAndMax(t *testing.T) {
	if got := Backoff(0); got != BaseDelay {
		t.Fatalf("Backoff(0) = %v, want %v", got, BaseDelay)
	}
	if got := Backoff(1); got != 2*BaseDelay {
		t.Fatalf("Backoff(1) = %v, want %v", got, 2*BaseDelay)
	}
	if got := Backoff(-5); got != BaseDelay {
		t.Fatalf("Backoff(-5) = %v, want BaseDelay", got)
	}
	if got := Backoff(20); got != MaxDelay {
		t.Fatalf("Backoff(20) = %v, want MaxDelay", got)
	}
}

// P10 — execute_with_retry invokes op at most MAX_RETRY+1 times.
func TestExecuteWithRetryBoundsAttempts(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	sleeper := &noSleeper{}
	h.sleeper = sleeper

	attempts := 0
	retryableErr := &NetworkError{Kind: ConnectionFailed, Err: errors.New("boom")}
	err := h.ExecuteWithRetry(context.Background(), "op1", "peer1", func(ctx context.Context) error {
		attempts++
		return retryableErr
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != MaxRetry+1 {
		t.Fatalf("attempts = %d, want %d", attempts, MaxRetry+1)
	}
	rec, ok := h.FailureRecordFor("peer1")
	if !ok || rec.Count != 1 {
		t.Fatalf("FailureRecordFor = %+v, %v, want Count=1", rec, ok)
	}
}

func TestExecuteWithRetryCriticalFailsImmediately(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	sleeper := &noSleeper{}
	h.sleeper = sleeper

	attempts := 0
	critical := &NetworkError{Kind: ProtocolViolation, Err: errors.New("bad frame")}
	err := h.ExecuteWithRetry(context.Background(), "op2", "peer2", func(ctx context.Context) error {
		attempts++
		return critical
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (Critical must not retry)", attempts)
	}
	if sleeper.calls != 0 {
		t.Fatalf("sleeper.calls = %d, want 0", sleeper.calls)
	}
}

func TestExecuteWithRetrySuccessClearsFailure(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	h.sleeper = &noSleeper{}

	// First, exhaust retries so peer3 picks up a failure record.
	_ = h.ExecuteWithRetry(context.Background(), "op3a", "peer3", func(ctx context.Context) error {
		return &NetworkError{Kind: Io, Err: errors.New("transient")}
	})
	if _, ok := h.FailureRecordFor("peer3"); !ok {
		t.Fatal("expected a failure record after exhausted retries")
	}

	// A subsequent successful call must clear it.
	err := h.ExecuteWithRetry(context.Background(), "op3b", "peer3", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithRetry: %v", err)
	}
	if _, ok := h.FailureRecordFor("peer3"); ok {
		t.Fatal("a successful retry must clear any prior failure record")
	}
}

func TestClassifySeverityMapping(t *testing.T) {
	cases := map[ErrorKind]Severity{
		ConnectionTimeout:    SeverityLow,
		PeerNotConnected:     SeverityLow,
		Generic:              SeverityLow,
		ConnectionFailed:     SeverityMedium,
		Io:                   SeverityMedium,
		MessageSendFailed:    SeverityMedium,
		HandshakeFailed:      SeverityHigh,
		HandshakeTimeout:     SeverityHigh,
		MessageSerialization: SeverityHigh,
		InvalidMessage:       SeverityCritical,
		ProtocolViolation:    SeverityCritical,
	}
	for kind, want := range cases {
		if got := ClassifySeverity(kind); got != want {
			t.Errorf("ClassifySeverity(%v) = %v, want %v", kind, got, want)
		}
	}
}

func TestStrategyForMapping(t *testing.T) {
	cases := map[Severity]RecoveryStrategy{
		SeverityLow:      RetryImmediate,
		SeverityMedium:   RetryWithBackoff,
		SeverityHigh:     ReconnectAndRetry,
		SeverityCritical: MarkAsFailed,
	}
	for sev, want := range cases {
		if got := StrategyFor(sev); got != want {
			t.Errorf("StrategyFor(%v) = %v, want %v", sev, got, want)
		}
	}
}
