package attrs

import "github.com/reoring/attrs/cast"

// findExisting returns the first item whose identity key renders to the same
// string as the one in raw. The submitted key is coerced like the key
// attribute first, so "010" finds the item stored as 10. It returns nil when
// target has no identity key, when raw carries no identity value, or when
// nothing matches.
func findExisting(items []*Model, raw map[string]any, target *Type) *Model {
	pk, ok := target.PrimaryKey()
	if !ok {
		return nil
	}
	rv, ok := lookup(raw, pk)
	if !ok {
		return nil
	}
	if i, ok := target.readable(pk); ok && target.fields[i].nested == nil {
		if cv, err := cast.To(target.fields[i].kind, rv); err == nil && cv != nil {
			rv = cv
		}
	}
	want, ok := cast.Key(rv)
	if !ok {
		return nil
	}
	for _, it := range items {
		got, ok := cast.Key(it.Get(pk))
		if ok && got == want {
			return it
		}
	}
	return nil
}
