package attrs

import (
	"strings"

	"github.com/reoring/attrs/cast"
)

// Method refers to a named method declared on the model's type with
// Builder.Method. It can be used wherever a late value or a reject predicate
// is accepted.
type Method string

// AllBlank is the reject predicate that drops items whose submitted values
// are all blank. The "_destroy" key is not considered.
const AllBlank = "all_blank"

// MethodFunc is a named method callable through Method references.
type MethodFunc func(m *Model, args ...any) (any, error)

// Resolve evaluates a late-bound value for field against m.
//
// Supported forms are generators (func() any, func(*Model) any and
// func(*Model, string) any, each optionally returning an error), Method
// references and literals. Errors from generators are returned unchanged.
func Resolve(field string, spec any, m *Model) (any, error) {
	switch fn := spec.(type) {
	case func() any:
		return fn(), nil
	case func() (any, error):
		return fn()
	case func(*Model) any:
		return fn(m), nil
	case func(*Model) (any, error):
		return fn(m)
	case func(*Model, string) any:
		return fn(m, field), nil
	case func(*Model, string) (any, error):
		return fn(m, field)
	case Method:
		return m.Call(string(fn))
	}
	return spec, nil
}

// Reject evaluates a reject predicate for a submitted item.
//
// AllBlank checks the item's values. A Method receives the item and its
// result is read for truthiness. Predicate functions are called with the item.
// Any other spec is itself the answer, read for truthiness.
func Reject(item map[string]any, spec any, m *Model) (bool, error) {
	switch fn := spec.(type) {
	case string:
		if fn == AllBlank {
			return allBlank(item), nil
		}
	case Method:
		v, err := m.Call(string(fn), item)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	case func(map[string]any) bool:
		return fn(item), nil
	case func(map[string]any) (bool, error):
		return fn(item)
	case func(*Model, map[string]any) bool:
		return fn(m, item), nil
	case func(*Model, map[string]any) (bool, error):
		return fn(m, item)
	}
	return truthy(spec), nil
}

func allBlank(item map[string]any) bool {
	for k, v := range item {
		if strings.EqualFold(k, destroyKey) {
			continue
		}
		if !cast.Blank(v) {
			return false
		}
	}
	return true
}

// truthy treats only nil and false as false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	}
	return true
}
