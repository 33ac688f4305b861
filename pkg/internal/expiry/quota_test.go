package expiry_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
)

func TestCalculateFreeSpace(t *testing.T) {
	tests := []struct {
		name      string
		quota     expiry.Quota
		limit     int
		trashSize int64
		want      int64
	}{
		{"half of quota", expiry.Quota{Bytes: 1000}, 50, 300, 200},
		{"floor", expiry.Quota{Bytes: 999}, 50, 0, 499},
		{"over limit", expiry.Quota{Bytes: 1000}, 50, 700, -200},
		{"zero quota with trash", expiry.Quota{Bytes: 0}, 50, 10, -10},
		{"zero quota no trash", expiry.Quota{Bytes: 0}, 50, 0, 0},
		{"negative quota", expiry.Quota{Bytes: -20}, 50, 10, -30},
		{"limit zero", expiry.Quota{Bytes: 1000}, 0, 1, -1},
		{"limit clamped", expiry.Quota{Bytes: 1000}, 150, 0, 1000},
		{"no overflow", expiry.Quota{Bytes: math.MaxInt64}, 100, 0, math.MaxInt64},
		{"unlimited", expiry.Quota{Unlimited: true}, 50, math.MaxInt32, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := expiry.NewQuotaPolicy(fixedQuota{quota: tt.quota}, tt.limit)

			got, err := p.CalculateFreeSpace(context.Background(), tt.trashSize, "alice")
			if err != nil {
				t.Fatalf("CalculateFreeSpace() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("CalculateFreeSpace() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculateFreeSpaceLookupError(t *testing.T) {
	p := expiry.NewQuotaPolicy(fixedQuota{err: errors.New("ldap down")}, 50)

	_, err := p.CalculateFreeSpace(context.Background(), 1, "alice")
	if !errors.Is(err, expiry.ErrQuotaLookup) {
		t.Fatalf("expected ErrQuotaLookup, got %v", err)
	}
}

func TestPurgeLimit(t *testing.T) {
	if got := expiry.NewQuotaPolicy(nil, 30).PurgeLimit(); got != 30 {
		t.Errorf("PurgeLimit() = %d, want 30", got)
	}

	if got := expiry.NewQuotaPolicy(nil, -5).PurgeLimit(); got != 0 {
		t.Errorf("PurgeLimit() = %d, want 0", got)
	}
}
