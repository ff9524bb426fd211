// Package cast coerces raw form values into the scalar kinds an attribute can
// be declared with. Conversions are delegated to github.com/spf13/cast; this
// package only decides which conversion applies and how blank input is read.
package cast

import (
	"fmt"
	"strings"
	"time"

	sc "github.com/spf13/cast"
)

// Kind is the declared scalar type of an attribute.
type Kind int

const (
	Any     Kind = iota // Stored as given.
	String              // string
	Integer             // int64
	Float               // float64
	Boolean             // bool
	Date                // time.Time truncated to the day (UTC)
	Time                // time.Time
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a kind name (as written in schema files) to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return Any, nil
	case "string", "text":
		return String, nil
	case "integer", "int":
		return Integer, nil
	case "float", "number", "decimal":
		return Float, nil
	case "boolean", "bool":
		return Boolean, nil
	case "date":
		return Date, nil
	case "time", "datetime":
		return Time, nil
	}
	return Any, fmt.Errorf("cast: unknown kind %q", name)
}

// To coerces v to kind k. A nil input stays nil. For every kind except String
// and Any a blank string is read as nil, so "" submitted for an integer field
// clears it instead of failing.
func To(k Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if k != String && k != Any {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil, nil
		}
	}
	switch k {
	case Any:
		return v, nil
	case String:
		return sc.ToStringE(v)
	case Integer:
		if str, ok := v.(string); ok {
			v = decimal(str)
		}
		return sc.ToInt64E(v)
	case Float:
		return sc.ToFloat64E(v)
	case Boolean:
		return sc.ToBoolE(v)
	case Date:
		t, err := sc.ToTimeE(v)
		if err != nil {
			return nil, err
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case Time:
		return sc.ToTimeE(v)
	}
	return nil, fmt.Errorf("cast: unsupported kind %v", k)
}

// decimal drops leading zeros from a number given as text, so form input such
// as "010" reads as ten rather than as an octal literal.
func decimal(s string) string {
	s = strings.TrimSpace(s)
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	for len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = s[1:]
	}
	return sign + s
}

// Key renders an identity value as a string so that 1, int64(1), 1.0 and "1"
// compare equal. ok is false when v carries no identity (nil or blank).
func Key(v any) (string, bool) {
	if Blank(v) {
		return "", false
	}
	s, err := sc.ToStringE(v)
	if err != nil {
		s = fmt.Sprint(v)
	}
	return s, true
}

// Truthy reads a form flag such as "_destroy". Values that do not parse as a
// boolean are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	b, err := sc.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

// Blank reports whether v is nil or a string made only of whitespace.
func Blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *string:
		return x == nil || strings.TrimSpace(*x) == ""
	}
	return false
}
