package report

import (
	"strconv"
	"strings"
)

// RangeKind identifies how a reference range was encoded.
type RangeKind string

const (
	RangeBetween RangeKind = "between" // "min-max"
	RangeBelow   RangeKind = "below"   // "<X"
	RangeAbove   RangeKind = "above"   // ">X"
	RangeUnknown RangeKind = "unknown"
)

// Range is a parsed reference range.
type Range struct {
	Kind RangeKind `json:"kind"`
	Min  *float64  `json:"min,omitempty"`
	Max  *float64  `json:"max,omitempty"`
}

// ParseRange parses the encodings the LIS emits: "min-max", "<X" and ">X".
// Units or trailing text after a number are ignored.
func ParseRange(s string) Range {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{Kind: RangeUnknown}
	}

	if strings.Contains(s, "-") && !strings.HasPrefix(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) == 2 {
			lo, okLo := leadingFloat(parts[0])
			hi, okHi := leadingFloat(parts[1])
			if okLo && okHi {
				return Range{Kind: RangeBetween, Min: &lo, Max: &hi}
			}
		}
	}
	if strings.HasPrefix(s, "<") {
		if v, ok := leadingFloat(strings.TrimLeft(s, "<= ")); ok {
			return Range{Kind: RangeBelow, Max: &v}
		}
	}
	if strings.HasPrefix(s, ">") {
		if v, ok := leadingFloat(strings.TrimLeft(s, ">= ")); ok {
			return Range{Kind: RangeAbove, Min: &v}
		}
	}
	return Range{Kind: RangeUnknown}
}

// Abnormal reports whether value falls outside the range. Non-numeric
// values and unparseable ranges are never abnormal.
func (r Range) Abnormal(value string) bool {
	v, ok := leadingFloat(value)
	if !ok {
		return false
	}
	switch r.Kind {
	case RangeBetween:
		return v < *r.Min || v > *r.Max
	case RangeBelow:
		return v >= *r.Max
	case RangeAbove:
		return v <= *r.Min
	}
	return false
}

// Flag is an out-of-range parameter.
type Flag struct {
	TestCode      string `json:"test_code"`
	TestName      string `json:"test_name"`
	ParameterCode string `json:"parameter_code"`
	ParameterName string `json:"parameter_name"`
	Value         string `json:"value"`
	NormalRange   string `json:"normal_range"`
}

// AbnormalParameters lists every parameter whose value is outside its
// reference range, in report order.
func (r *Report) AbnormalParameters() []Flag {
	if r == nil {
		return nil
	}
	var flags []Flag
	for _, t := range r.TestReqest {
		for _, p := range t.Testparameters {
			if p.Value == "" || p.NormalRange == "" {
				continue
			}
			if ParseRange(p.NormalRange).Abnormal(p.Value) {
				flags = append(flags, Flag{
					TestCode:      t.TestCode,
					TestName:      t.TestName,
					ParameterCode: p.ParameterCode,
					ParameterName: p.ParameterName,
					Value:         p.Value,
					NormalRange:   p.NormalRange,
				})
			}
		}
	}
	return flags
}

// leadingFloat parses the longest numeric prefix of s, so "4.5 g/dL" is 4.5.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		break
	}
	for end > 0 {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return v, true
		}
		end--
	}
	return 0, false
}
