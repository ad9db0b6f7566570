package transform

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Built-in transform names.
const (
	NameIdentity = "identity"
	NameToggle   = "toggle"
	NameCurrency = "currency"
	NameNumber   = "number"
	NameAbsent   = "absent"
	NamePresent  = "present"
	NameSanitize = "sanitize"
)

// Identity passes values through unchanged.
type Identity struct{}

func (Identity) ToTarget(source any, _ string) any { return source }
func (Identity) ToSource(target any, _ string) any { return target }

// Toggle maps a truthy model value to Value (or the source name when Value is
// empty) and anything else to the empty string.
type Toggle struct {
	Value string
}

func (t Toggle) ToTarget(source any, sourceName string) any {
	if Truthy(source) {
		return t.label(sourceName)
	}
	return ""
}

func (t Toggle) ToSource(target any, sourceName string) any {
	return t.label(sourceName) == fmt.Sprint(target)
}

func (t Toggle) label(sourceName string) string {
	if t.Value != "" {
		return t.Value
	}
	return sourceName
}

// Currency renders numbers as `$1.50` and parses them back.
type Currency struct{}

var currencyPattern = regexp.MustCompile(`^\$?([-\d\.]*)$`)

func (Currency) ToTarget(source any, _ string) any {
	num := ToNumber(source)
	if math.IsNaN(num) {
		return "NaN"
	}
	return "$" + strconv.FormatFloat(num, 'f', 2, 64)
}

func (Currency) ToSource(target any, _ string) any {
	m := currencyPattern.FindStringSubmatch(fmt.Sprint(target))
	if m == nil {
		return math.NaN()
	}
	return ToNumber(m[1])
}

// Number parses presentation values into float64 on the way back to the model.
type Number struct{}

func (Number) ToTarget(source any, _ string) any { return source }
func (Number) ToSource(target any, _ string) any { return ToNumber(target) }

// Absent is true for empty or falsy values.
type Absent struct{}

func (Absent) ToTarget(source any, _ string) any { return isAbsent(source) }
func (Absent) ToSource(target any, _ string) any { return target }

// Present is the negation of Absent.
type Present struct{}

func (Present) ToTarget(source any, _ string) any { return !isAbsent(source) }
func (Present) ToSource(target any, _ string) any { return target }

// Sanitize strips all markup from string values using a strict policy.
type Sanitize struct{}

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func (Sanitize) ToTarget(source any, _ string) any {
	if source == nil {
		return nil
	}
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(strictPolicy.Sanitize(fmt.Sprint(source)))
}

func (Sanitize) ToSource(target any, _ string) any { return target }

// Truthy mirrors loose truthiness: nil, false, zero, NaN and "" are false.
func Truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// ToNumber converts numeric values and numeric strings to float64. Blank
// strings are zero; anything else is NaN.
func ToNumber(v any) float64 {
	switch value := v.(type) {
	case nil:
		return math.NaN()
	case bool:
		if value {
			return 1
		}
		return 0
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return 0
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return math.NaN()
}

type lengther interface {
	Len() int
}

func isAbsent(v any) bool {
	if l, ok := v.(lengther); ok {
		return l.Len() == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.String:
		return rv.Len() == 0
	}
	return !Truthy(v)
}
