package rewards

import (
	"testing"
	"time"
)

func TestComputeStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		reward Reward
		want   Status
	}{
		{"fresh grant", Reward{}, StatusAvailable},
		{"pending wins over everything", Reward{Pending: true, Used: true, ExpiresAt: &past}, StatusPending},
		{"used is completed", Reward{Used: true}, StatusCompleted},
		{"used wins over expiry", Reward{Used: true, ExpiresAt: &past}, StatusCompleted},
		{"past expiry", Reward{ExpiresAt: &past}, StatusExpired},
		{"future expiry still available", Reward{ExpiresAt: &future}, StatusAvailable},
		{"no expiry never expires", Reward{IssuedAt: now.AddDate(-10, 0, 0)}, StatusAvailable},
		{"expiry exactly now not yet expired", Reward{ExpiresAt: &now}, StatusAvailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeStatus(tc.reward, now); got != tc.want {
				t.Fatalf("ComputeStatus = %s, want %s", got, tc.want)
			}
			// Pure: same inputs, same answer on repeat.
			if got := ComputeStatus(tc.reward, now); got != tc.want {
				t.Fatalf("ComputeStatus not stable, got %s", got)
			}
		})
	}
}
