package attrs

import (
	"cmp"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// destroyKey is the reserved input key carrying the destroy flag.
const destroyKey = "_destroy"

// canonicalKey folds a submitted key so that "date_of_birth", "dateOfBirth"
// and "Date-Of-Birth" address the same field.
func canonicalKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range k {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// lookup finds key in m, preferring an exact match over a folded one.
func lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	ck := canonicalKey(key)
	for _, k := range sortedKeys(m) {
		if canonicalKey(k) == ck {
			return m[k], true
		}
	}
	return nil, false
}

// destroyFlag reads "_destroy" from a submitted item. The reserved key is
// matched case-insensitively but underscores are significant, so it never
// collides with an attribute named "destroy".
func destroyFlag(m map[string]any) (any, bool) {
	if v, ok := m[destroyKey]; ok {
		return v, true
	}
	for _, k := range sortedKeys(m) {
		if strings.EqualFold(k, destroyKey) {
			return m[k], true
		}
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	slices.Sort(ks)
	return ks
}

// asMapping normalizes any string-keyed map into map[string]any. YAML-style
// map[any]any is accepted when every key is a string.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, x := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = x
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		out[it.Key().String()] = it.Value().Interface()
	}
	return out, true
}

// asSequence turns a collection assignment into an ordered item list. A
// mapping contributes its values ordered by key (numeric keys first, compared
// numerically) which is how index-keyed form submissions arrive.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []*Model:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	case string, []byte:
		return nil, false
	}
	if m, ok := asMapping(v); ok {
		ks := sortedKeys(m)
		slices.SortStableFunc(ks, compareIndexKeys)
		out := make([]any, len(ks))
		for i, k := range ks {
			out[i] = m[k]
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func compareIndexKeys(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
