package retry_test

import (
	"context"
	"testing"
	"time"

	"cinevault/services/upload-api/internal/domain/retry"
)

func TestPolicy_CalculateDelay(t *testing.T) {
	tests := []struct {
		name        string
		policy      retry.Policy
		attempt     int
		expectedMin time.Duration
		expectedMax time.Duration
	}{
		{
			name: "fixed backoff - attempt 1",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffFixed,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        1 * time.Second,
				JitterFactor:    0,
			},
			attempt:     1,
			expectedMin: 100 * time.Millisecond,
			expectedMax: 100 * time.Millisecond,
		},
		{
			name: "fixed backoff - attempt 5",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffFixed,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        1 * time.Second,
				JitterFactor:    0,
			},
			attempt:     5,
			expectedMin: 100 * time.Millisecond,
			expectedMax: 100 * time.Millisecond,
		},
		{
			name: "linear backoff - attempt 3",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffLinear,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        1 * time.Second,
				JitterFactor:    0,
			},
			attempt:     3,
			expectedMin: 300 * time.Millisecond,
			expectedMax: 300 * time.Millisecond,
		},
		{
			name: "exponential backoff - attempt 1",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffExponential,
				InitialDelay:    500 * time.Millisecond,
				MaxDelay:        30 * time.Second,
				JitterFactor:    0,
			},
			attempt:     1,
			expectedMin: 500 * time.Millisecond,
			expectedMax: 500 * time.Millisecond,
		},
		{
			name: "exponential backoff - attempt 2 doubles",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffExponential,
				InitialDelay:    500 * time.Millisecond,
				MaxDelay:        30 * time.Second,
				JitterFactor:    0,
			},
			attempt:     2,
			expectedMin: 1 * time.Second,
			expectedMax: 1 * time.Second,
		},
		{
			name: "exponential backoff - attempt 3 doubles again",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffExponential,
				InitialDelay:    500 * time.Millisecond,
				MaxDelay:        30 * time.Second,
				JitterFactor:    0,
			},
			attempt:     3,
			expectedMin: 2 * time.Second,
			expectedMax: 2 * time.Second,
		},
		{
			name: "exponential backoff capped at max delay",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffExponential,
				InitialDelay:    1 * time.Second,
				MaxDelay:        5 * time.Second,
				JitterFactor:    0,
			},
			attempt:     10,
			expectedMin: 5 * time.Second,
			expectedMax: 5 * time.Second,
		},
		{
			name: "jitter stays within bounds",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffFixed,
				InitialDelay:    1 * time.Second,
				MaxDelay:        10 * time.Second,
				JitterFactor:    0.5,
			},
			attempt:     1,
			expectedMin: 500 * time.Millisecond,
			expectedMax: 1500 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay := tt.policy.CalculateDelay(tt.attempt)
			if delay < tt.expectedMin || delay > tt.expectedMax {
				t.Errorf("CalculateDelay(%d) = %v, want between %v and %v",
					tt.attempt, delay, tt.expectedMin, tt.expectedMax)
			}
		})
	}
}

func TestTimerSleeper_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := retry.TimerSleeper{}.Sleep(ctx, 10*time.Second)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("sleep did not abort promptly, took %v", elapsed)
	}
}

func TestTimerSleeper_CompletesShortSleep(t *testing.T) {
	if err := (retry.TimerSleeper{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
