package schema

import "strings"

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ValueOrZero dereferences v, treating absence as 0.
// Only threshold comparisons use this; display keeps the absence.
func ValueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Coalesce returns the first present value.
func Coalesce(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// Ratio returns num/den, or nil when an operand is absent or den is zero.
func Ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return Float64Ptr(*num / *den)
}

// Scale multiplies a present value by factor.
func Scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return Float64Ptr(*v * factor)
}

// Truthy reports whether a present value is non-zero.
func Truthy(v *float64) bool {
	return v != nil && *v != 0
}

// ParseScenario maps a label back to its Scenario, falling back to OtherScenario.
func ParseScenario(label string) Scenario {
	label = strings.TrimSpace(label)
	for _, s := range AllScenarios {
		if string(s) == label {
			return s
		}
	}
	return OtherScenario
}
