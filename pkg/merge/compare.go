package merge

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts seen in scraped feeds, most common first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compareValues orders two field values. Null is smaller than everything,
// so a descending sort puts nulls last. Timestamps compare as instants,
// numbers as numbers, everything else falls back to type rank and string
// form so the order stays deterministic across runs.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if at, aok := asTime(a); aok {
		if bt, bok := asTime(b); bok {
			return at.Compare(bt)
		}
	}
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}

	// Mixed types: rank first, then the printed form.
	ar, br := typeRank(a), typeRank(b)
	if ar != br {
		if ar < br {
			return -1
		}
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// compareTuples orders two value tuples field by field; a shorter tuple
// that is a prefix of the other compares smaller.
func compareTuples(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTime(t)
	default:
		return time.Time{}, false
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func typeRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case int, int64, float32, float64:
		return 1
	case time.Time:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
