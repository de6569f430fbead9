package model1

import (
	"strings"

	"github.com/fvbommel/sortorder"
)

// IsValid returns false when the row carries a VALID column set to anything
// but true.
func IsValid(h Header, r Row) bool {
	if len(r.Fields) == 0 {
		return true
	}
	idx, ok := h.IndexOf("VALID")
	if !ok || idx >= len(r.Fields) {
		return true
	}
	val := strings.TrimSpace(r.Fields[idx])
	return val == "" || strings.EqualFold(val, "true")
}

// Less returns true if v1 <= v2, falling back to the ids on ties.
func Less(isNumber, isDuration bool, id1, id2, v1, v2 string) bool {
	if v1 == v2 {
		return sortorder.NaturalLess(id1, id2)
	}
	switch {
	case isNumber:
		return lessNumber(v1, v2)
	case isDuration:
		return durationToSeconds(v1) <= durationToSeconds(v2)
	default:
		return sortorder.NaturalLess(v1, v2)
	}
}

func lessNumber(s1, s2 string) bool {
	v1, v2 := strings.ReplaceAll(s1, ",", ""), strings.ReplaceAll(s2, ",", "")
	return sortorder.NaturalLess(v1, v2)
}

func durationToSeconds(duration string) int64 {
	if duration == "" || duration == NAValue {
		return 0
	}
	num := make([]rune, 0, 5)
	var n, m int64
	for _, r := range duration {
		switch r {
		case 'y':
			m = 365 * 24 * 60 * 60
		case 'd':
			m = 24 * 60 * 60
		case 'h':
			m = 60 * 60
		case 'm':
			m = 60
		case 's':
			m = 1
		default:
			num = append(num, r)
			continue
		}
		n, num = n+runesToNum(num)*m, num[:0]
	}
	return n
}

func runesToNum(rr []rune) int64 {
	var r int64
	var m int64 = 1
	for i := len(rr) - 1; i >= 0; i-- {
		v := int64(rr[i] - '0')
		r += v * m
		m *= 10
	}
	return r
}
