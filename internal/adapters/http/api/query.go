package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/carom/internal/domain/selector"
)

// Query values accepted by select=.
const (
	selectAll       = "all"
	selectLast      = "last"
	selectRange     = "range"
	selectThisMonth = "thisMonth"
	selectYearMonth = "yearMonth"
)

var queryDateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseSelector reads select, n, from, to, now, year and month. A bare n
// without select means the last n games.
func parseSelector(q url.Values, loc *time.Location) (selector.Selector, error) {
	kind := q.Get("select")
	if kind == "" && q.Has("n") {
		kind = selectLast
	}
	switch kind {
	case "", selectAll:
		return selector.All(), nil
	case selectLast, "lastN":
		n, err := intParam(q, "n", 0)
		if err != nil {
			return selector.Selector{}, err
		}
		if !q.Has("n") {
			return selector.Selector{}, fmt.Errorf("select=%s requires n", kind)
		}
		return selector.LastN(n), nil
	case selectRange:
		from, err := dateParam(q, "from", loc)
		if err != nil {
			return selector.Selector{}, err
		}
		to, err := dateParam(q, "to", loc)
		if err != nil {
			return selector.Selector{}, err
		}
		return selector.Range(from, to), nil
	case selectThisMonth:
		now, err := dateParam(q, "now", loc)
		if err != nil {
			return selector.Selector{}, err
		}
		if now == nil {
			return selector.ThisMonth(time.Time{}), nil
		}
		return selector.ThisMonth(*now), nil
	case selectYearMonth:
		// Non-integer year or month selects nothing rather than failing.
		year, _ := strconv.Atoi(q.Get("year"))
		month, _ := strconv.Atoi(q.Get("month"))
		return selector.YearMonth(year, month), nil
	default:
		return selector.Selector{}, fmt.Errorf("unknown select %q", kind)
	}
}

func intParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func floatParam(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func boolParam(q url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &v, nil
}

func dateParam(q url.Values, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339", key)
}
