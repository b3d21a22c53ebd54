package dhtingestor

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order against the normalized value. The
// fractional layout also matches plain second precision.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp parses the ISO 8601 variants devices send: "T" or space as
// the separator, an optional trailing "Z", optional fractional seconds, and
// minute or date precision. Values carry no zone information and are read as
// UTC, truncated to whole seconds to match the stored column.
func parseTimestamp(raw string) (time.Time, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "T", " ")
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "Z"))

	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, cleaned, time.UTC)
		if err == nil {
			return ts.Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}
