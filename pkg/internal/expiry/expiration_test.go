package expiry_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
)

func TestParseRetentionObligation(t *testing.T) {
	tests := []struct {
		obligation  string
		enabled     bool
		purgeToSave bool
		hasMax      bool
		maxDays     int
		hasMin      bool
		minDays     int
	}{
		{"auto", true, true, false, 0, true, 30},
		{"", true, true, false, 0, true, 30},
		{"auto, auto", true, true, false, 0, true, 30},
		{"7, auto", true, true, false, 0, true, 7},
		{"auto, 14", true, true, true, 14, false, 0},
		{"3,10", true, false, true, 10, true, 3},
		{"10, 3", true, false, true, 10, true, 10},
		{"auto, 0", true, true, true, 0, false, 0},
		{"disabled", false, true, false, 0, false, 0},
		{"Disabled", false, true, false, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.obligation, func(t *testing.T) {
			e := expiry.NewExpiration(tt.obligation, clock, nil)

			if e.IsEnabled() != tt.enabled {
				t.Errorf("IsEnabled() = %v, want %v", e.IsEnabled(), tt.enabled)
			}

			if e.CanPurgeToSaveSpace() != tt.purgeToSave {
				t.Errorf("CanPurgeToSaveSpace() = %v, want %v", e.CanPurgeToSaveSpace(), tt.purgeToSave)
			}

			cutoff, ok := e.MaxAgeCutoff()
			if ok != tt.hasMax {
				t.Fatalf("MaxAgeCutoff() ok = %v, want %v", ok, tt.hasMax)
			}

			if ok && !cutoff.Equal(now.AddDate(0, 0, -tt.maxDays)) {
				t.Errorf("MaxAgeCutoff() = %v, want %d days before now", cutoff, tt.maxDays)
			}

			minCutoff, ok := e.MinAgeCutoff()
			if ok != tt.hasMin {
				t.Fatalf("MinAgeCutoff() ok = %v, want %v", ok, tt.hasMin)
			}

			if ok && !minCutoff.Equal(now.AddDate(0, 0, -tt.minDays)) {
				t.Errorf("MinAgeCutoff() = %v, want %d days before now", minCutoff, tt.minDays)
			}
		})
	}
}

func TestInvalidObligationFallsBackToAuto(t *testing.T) {
	for _, raw := range []string{"forever", "-1, auto", "1,2,3", "auto, x"} {
		var buf bytes.Buffer

		logger := zerolog.New(&buf)
		e := expiry.NewExpiration(raw, clock, &logger)

		if e.Obligation() != expiry.RetentionAuto {
			t.Errorf("%q: Obligation() = %q, want auto", raw, e.Obligation())
		}

		if !strings.Contains(buf.String(), "falling back to auto") {
			t.Errorf("%q: expected warning, got %q", raw, buf.String())
		}
	}
}

func TestIsExpired(t *testing.T) {
	future := now.Add(time.Hour).Unix()

	tests := []struct {
		name       string
		obligation string
		ts         int64
		normal     bool
		emergency  bool
	}{
		{"auto young", "auto", daysAgo(1), false, true},
		{"auto old", "auto", daysAgo(400), false, true},
		{"max only expired", "auto, 7", daysAgo(8), true, true},
		{"max only boundary", "auto, 7", daysAgo(7), false, true},
		{"min max younger than min", "3, 10", daysAgo(2), false, false},
		{"min max between", "3, 10", daysAgo(5), false, true},
		{"min max expired", "3, 10", daysAgo(11), true, true},
		{"disabled old", "disabled", daysAgo(1000), false, true},
		{"future never by age", "3, 10", future, false, false},
		{"future auto max", "auto, 0", future, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := expiry.NewExpiration(tt.obligation, clock, nil)

			if got := e.IsExpired(tt.ts, false); got != tt.normal {
				t.Errorf("IsExpired(normal) = %v, want %v", got, tt.normal)
			}

			if got := e.IsExpired(tt.ts, true); got != tt.emergency {
				t.Errorf("IsExpired(emergency) = %v, want %v", got, tt.emergency)
			}
		})
	}
}

func TestEmergencyCoversNormal(t *testing.T) {
	obligations := []string{"auto", "7, auto", "auto, 7", "3, 10", "10, 3", "0, 0", "disabled"}

	for _, o := range obligations {
		e := expiry.NewExpiration(o, clock, nil)

		for d := -5; d <= 60; d++ {
			ts := daysAgo(d)
			if e.IsExpired(ts, false) && !e.IsExpired(ts, true) {
				t.Errorf("%q: %d days old expired normally but not in emergency mode", o, d)
			}
		}
	}
}

func TestDisabledNeverExpiresNormally(t *testing.T) {
	e := expiry.NewExpiration(expiry.RetentionDisabled, clock, nil)

	for d := 0; d < 5000; d += 97 {
		if e.IsExpired(daysAgo(d), false) {
			t.Fatalf("disabled retention reported %d days as expired", d)
		}
	}
}
