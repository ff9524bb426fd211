package attrs

import (
	"slices"
	"strings"

	"github.com/reoring/attrs/cast"
)

// Model is one instance of a Type. It is not safe for concurrent use.
type Model struct {
	typ        *Type
	values     []any  // scalar values, aligned with typ.fields
	slots      []slot // nested reconcilers, aligned with typ.fields; nil for scalars
	castIssues map[int]Issue
	destroyed  bool
	errors     Issues
}

// slot owns the current value of one nested field.
type slot interface {
	get() any
	empty() bool
	assign(owner *Model, raw any) error
}

func (t *Type) alloc() *Model {
	m := &Model{
		typ:    t,
		values: make([]any, len(t.fields)),
		slots:  make([]slot, len(t.fields)),
	}
	for i, f := range t.fields {
		if f.nested == nil {
			continue
		}
		if f.nested.many {
			m.slots[i] = &manySlot{f: f}
		} else {
			m.slots[i] = &oneSlot{f: f}
		}
	}
	return m
}

// New constructs a model from submitted attributes.
//
// Nested initial values are applied first, then attrs through the regular
// writers (unknown keys are ignored), then defaults for every field attrs
// did not mention. An explicit nil in attrs counts as a mention.
func (t *Type) New(attrs map[string]any) (*Model, error) {
	m := t.alloc()
	for i, f := range t.fields {
		if f.nested == nil || !f.nested.hasInitial {
			continue
		}
		v, err := Resolve(f.name, f.nested.initial, m)
		if err != nil {
			return nil, err
		}
		if err := m.slots[i].assign(m, v); err != nil {
			return nil, err
		}
	}
	supplied, err := m.assign(attrs)
	if err != nil {
		return nil, err
	}
	for i, f := range t.fields {
		if supplied[i] {
			continue
		}
		switch {
		case f.nested != nil:
			if !f.nested.hasDefault || !m.slots[i].empty() {
				continue
			}
			v, err := Resolve(f.name, f.nested.def, m)
			if err != nil {
				return nil, err
			}
			if err := m.slots[i].assign(m, v); err != nil {
				return nil, err
			}
		case f.hasDefault:
			v, err := Resolve(f.name, f.def, m)
			if err != nil {
				return nil, err
			}
			m.writeScalar(i, v)
		}
	}
	return m, nil
}

// MustNew is like New but panics on error.
func (t *Type) MustNew(attrs map[string]any) *Model {
	m, err := t.New(attrs)
	if err != nil {
		panic(err)
	}
	return m
}

// Type returns the model's type.
func (m *Model) Type() *Type { return m.typ }

// Assign writes every declared attribute present in attrs and ignores the
// rest. Writers run in declaration order.
func (m *Model) Assign(attrs map[string]any) error {
	_, err := m.assign(attrs)
	return err
}

type pendingWrite struct {
	idx   int
	alias bool
	key   string
	value any
}

func (m *Model) assign(attrs map[string]any) (map[int]bool, error) {
	supplied := map[int]bool{}
	if len(attrs) == 0 {
		return supplied, nil
	}
	writes := make([]pendingWrite, 0, len(attrs))
	for k, v := range attrs {
		if strings.EqualFold(k, destroyKey) {
			continue
		}
		idx, alias, ok := m.typ.writable(k)
		if !ok {
			continue
		}
		writes = append(writes, pendingWrite{idx: idx, alias: alias, key: k, value: v})
	}
	slices.SortFunc(writes, func(a, b pendingWrite) int {
		if a.idx != b.idx {
			return a.idx - b.idx
		}
		if a.alias != b.alias {
			if a.alias {
				return 1
			}
			return -1
		}
		if a.key < b.key {
			return -1
		}
		if a.key > b.key {
			return 1
		}
		return 0
	})
	for _, w := range writes {
		supplied[w.idx] = true
		if err := m.write(w.idx, w.value); err != nil {
			return supplied, err
		}
	}
	return supplied, nil
}

// Set writes one attribute through its writer, honoring setter overrides.
// "<field>_attributes" is accepted for nested fields that keep the alias.
func (m *Model) Set(name string, value any) error {
	idx, _, ok := m.typ.writable(name)
	if !ok {
		return &UnknownAttributeError{Type: m.typ.name, Name: name}
	}
	return m.write(idx, value)
}

// WriteAttribute runs the generated writer of name directly, bypassing any
// setter override. Overrides use it (or their next argument) to reach the
// original behavior.
func (m *Model) WriteAttribute(name string, value any) error {
	idx, _, ok := m.typ.writable(name)
	if !ok {
		return &UnknownAttributeError{Type: m.typ.name, Name: name}
	}
	return m.writeCore(idx, value)
}

func (m *Model) write(idx int, value any) error {
	f := m.typ.fields[idx]
	if override, ok := m.typ.setters[canonicalKey(f.name)]; ok {
		return override(m, value, func(v any) error { return m.writeCore(idx, v) })
	}
	return m.writeCore(idx, value)
}

func (m *Model) writeCore(idx int, value any) error {
	if s := m.slots[idx]; s != nil {
		return s.assign(m, value)
	}
	m.writeScalar(idx, value)
	return nil
}

// writeScalar stores a coerced value. A value that cannot be coerced is
// stored as nil and reported by Validate.
func (m *Model) writeScalar(idx int, value any) {
	f := m.typ.fields[idx]
	v, err := cast.To(f.kind, value)
	if err != nil {
		if m.castIssues == nil {
			m.castIssues = map[int]Issue{}
		}
		m.castIssues[idx] = Issue{
			Path:    f.name,
			Code:    CodeInvalidType,
			Message: translate(CodeInvalidType, map[string]string{"kind": f.kind.String()}),
			Hint:    "expected " + f.kind.String(),
			Cause:   err,
			Params:  map[string]any{"kind": f.kind.String(), "got": value},
		}
		m.values[idx] = nil
		return
	}
	delete(m.castIssues, idx)
	m.values[idx] = v
}

// Get returns the current value of a field: the coerced scalar, a *Model for
// One fields or []*Model for Many fields. Absent values and unknown names
// yield nil.
func (m *Model) Get(name string) any {
	idx, ok := m.typ.readable(name)
	if !ok {
		return nil
	}
	if s := m.slots[idx]; s != nil {
		return s.get()
	}
	return m.values[idx]
}

// Lookup is like Get but reports whether name is declared.
func (m *Model) Lookup(name string) (any, bool) {
	if _, ok := m.typ.readable(name); !ok {
		return nil, false
	}
	return m.Get(name), true
}

// One returns the model held by a One field, or nil.
func (m *Model) One(name string) *Model {
	v, _ := m.Get(name).(*Model)
	return v
}

// Many returns the models held by a Many field. It is nil while the
// collection is absent.
func (m *Model) Many(name string) []*Model {
	v, _ := m.Get(name).([]*Model)
	return v
}

// Call invokes a named method of the model's type.
func (m *Model) Call(name string, args ...any) (any, error) {
	fn, ok := m.typ.methods[name]
	if !ok {
		return nil, &UnknownMethodError{Type: m.typ.name, Name: name}
	}
	return fn(m, args...)
}

// MarkForDestruction flags the model for removal. The model stays in its
// parent so it can still be inspected.
func (m *Model) MarkForDestruction() error {
	if !m.typ.destroyable {
		return ErrNotDestroyable
	}
	m.destroyed = true
	return nil
}

// MarkedForDestruction reports whether the model was flagged for removal.
func (m *Model) MarkedForDestruction() bool { return m.destroyed }
