package downsample

import (
	"testing"
	"time"
)

func TestParseRangeTokens(t *testing.T) {
	cases := []struct {
		token   string
		minutes int
		live    bool
	}{
		{"15d", 21600, false},
		{"7d", 10080, false},
		{"1d", 1440, false},
		{"1h", 60, false},
		{"30m", 30, false},
		{"live", 5, true},
	}

	for _, tc := range cases {
		rng := ParseRange(tc.token)
		if rng.Token != tc.token {
			t.Errorf("%s: unexpected token %q", tc.token, rng.Token)
		}
		if rng.Minutes != tc.minutes {
			t.Errorf("%s: expected %d minutes, got %d", tc.token, tc.minutes, rng.Minutes)
		}
		if rng.Live != tc.live {
			t.Errorf("%s: expected live=%v", tc.token, tc.live)
		}
	}
}

func TestParseRangeFallsBackToDefault(t *testing.T) {
	for _, token := range []string{"", "2w", "yesterday", "LIVE"} {
		rng := ParseRange(token)
		if rng.Token != DefaultToken {
			t.Errorf("%q: expected fallback to %s, got %s", token, DefaultToken, rng.Token)
		}
		if rng.Minutes != 1440 {
			t.Errorf("%q: expected 1440 minutes, got %d", token, rng.Minutes)
		}
	}
}

func TestRangeDuration(t *testing.T) {
	if d := ParseRange("30m").Duration(); d != 30*time.Minute {
		t.Errorf("unexpected 30m duration: %v", d)
	}
	if d := ParseRange("live").Duration(); d != 5*time.Minute {
		t.Errorf("unexpected live duration: %v", d)
	}
}
