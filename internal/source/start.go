package source

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Searched on the raw string: YouTube links are often pasted with a second '?' ("watch?v=id?start=10"), which
	// net/url folds into the v parameter.
	startParamPattern = regexp.MustCompile(`[?&#](?:start|t)=([0-9hms.]+)`)
	timestampPattern  = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+(?:\.\d+)?)s)?$`)
	secondsPattern    = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// StartTime extracts a start offset in seconds from a source URL.  It looks at start= and t= in the query or
// fragment, accepting plain seconds ("1330") and timestamps ("22m10s", "1h2m3s").
func StartTime(rawURL string) (float64, bool) {
	for _, m := range startParamPattern.FindAllStringSubmatch(rawURL, -1) {
		if seconds, ok := ParseTimestamp(m[1]); ok {
			return seconds, true
		}
	}
	return 0, false
}

// ParseTimestamp converts "1330", "90s", "22m10s" or "1h2m3s" into seconds.  Only plain decimal digits are
// accepted, so "inf", "NaN" and exponents like "1e9" are rejected.
func ParseTimestamp(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}
	if secondsPattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil && !math.IsInf(f, 0)
	}

	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	var total float64
	for i, unit := range []float64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, false
		}
		total += v * unit
	}
	return total, !math.IsInf(total, 0)
}
