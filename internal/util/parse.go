package util

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDuration is returned when a countdown string has no usable components.
var ErrUnparseableDuration = errors.New("unparseable duration")

var countdownComponentRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

var countdownUnits = map[string]struct {
	order int
	unit  time.Duration
}{
	"d": {0, 24 * time.Hour},
	"h": {1, time.Hour},
	"m": {2, time.Minute},
	"s": {3, time.Second},
}

// ParseDuration converts a countdown such as "1d 2h 3m 4s" into a time.Duration.
// Components are optional but must appear in d, h, m, s order, each at most once,
// separated by single spaces. Input without any component is rejected rather
// than read as a zero delta.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrUnparseableDuration)
	}

	var total time.Duration
	lastOrder := -1
	for _, token := range strings.Split(s, " ") {
		m := countdownComponentRegex.FindStringSubmatch(token)
		if m == nil {
			return 0, fmt.Errorf("%w: unexpected token %q in %q", ErrUnparseableDuration, token, s)
		}
		u := countdownUnits[m[2]]
		if u.order <= lastOrder {
			return 0, fmt.Errorf("%w: component %q out of order in %q", ErrUnparseableDuration, token, s)
		}
		lastOrder = u.order

		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > (math.MaxInt64-int64(total))/int64(u.unit) {
			return 0, fmt.Errorf("%w: %q overflows the duration range", ErrUnparseableDuration, s)
		}
		total += time.Duration(n) * u.unit
	}
	return total, nil
}
