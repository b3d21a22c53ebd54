package downsample

import "time"

// DefaultToken is the range applied when the requested token is missing or
// unknown.
const DefaultToken = "1d"

// Range is one supported chart window.
type Range struct {
	Token   string
	Minutes int
	Live    bool
}

// ranges maps each supported token to its fixed minute count. live is a
// rolling five-minute window ending now; every other window is anchored at
// the device's first reading.
var ranges = map[string]Range{
	"15d":  {Token: "15d", Minutes: 15 * 24 * 60},
	"7d":   {Token: "7d", Minutes: 7 * 24 * 60},
	"1d":   {Token: "1d", Minutes: 24 * 60},
	"1h":   {Token: "1h", Minutes: 60},
	"30m":  {Token: "30m", Minutes: 30},
	"live": {Token: "live", Minutes: 5, Live: true},
}

// ParseRange resolves a range token, falling back to DefaultToken for
// anything unrecognized.
func ParseRange(token string) Range {
	if r, ok := ranges[token]; ok {
		return r
	}
	return ranges[DefaultToken]
}

// Duration returns the window length.
func (r Range) Duration() time.Duration {
	return time.Duration(r.Minutes) * time.Minute
}
