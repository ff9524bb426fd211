package attrs

import (
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"
)

// Attributes returns the model as plain maps: scalars as stored, One fields
// as map[string]any, Many fields as []map[string]any and absent nested values
// as nil. Models marked for destruction carry "_destroy": true.
//
// A model reached again while it is being exported, because it was placed
// inside its own nested field, is rendered as nil at that point.
func (m *Model) Attributes() map[string]any {
	return m.export(func(_ Kind, v any) any { return v }, map[*Model]bool{})
}

// MarshalJSON encodes Attributes with dates as "2006-01-02" and times as
// RFC 3339.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.export(jsonScalar, map[*Model]bool{}))
}

func jsonScalar(k Kind, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if k == Date {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}

// export walks the nested models; active holds the models on the current
// path.
func (m *Model) export(scalar func(Kind, any) any, active map[*Model]bool) map[string]any {
	if active[m] {
		return nil
	}
	active[m] = true
	defer delete(active, m)
	out := make(map[string]any, len(m.typ.fields)+1)
	for i, f := range m.typ.fields {
		switch s := m.slots[i].(type) {
		case nil:
			out[f.name] = scalar(f.kind, m.values[i])
		case *oneSlot:
			if s.value == nil {
				out[f.name] = nil
			} else {
				out[f.name] = s.value.export(scalar, active)
			}
		case *manySlot:
			if s.items == nil {
				out[f.name] = nil
				continue
			}
			list := make([]map[string]any, len(s.items))
			for j, el := range s.items {
				list[j] = el.export(scalar, active)
			}
			out[f.name] = list
		}
	}
	if m.destroyed {
		out[destroyKey] = true
	}
	return out
}

// Inspect renders the model in declaration order, e.g.
// #<Person id: 1, name: "Bob", pets: [#<Pet name: "Rex">]>. A model that
// contains itself is shown as #<Person ...> where it recurs.
func (m *Model) Inspect() string {
	var b strings.Builder
	m.inspect(&b, map[*Model]bool{})
	return b.String()
}

// String implements fmt.Stringer with Inspect.
func (m *Model) String() string { return m.Inspect() }

func (m *Model) inspect(b *strings.Builder, active map[*Model]bool) {
	b.WriteString("#<")
	b.WriteString(m.typ.name)
	if active[m] {
		b.WriteString(" ...>")
		return
	}
	active[m] = true
	defer delete(active, m)
	for i, f := range m.typ.fields {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.name)
		b.WriteString(": ")
		switch s := m.slots[i].(type) {
		case nil:
			b.WriteString(inspectScalar(f.kind, m.values[i]))
		case *oneSlot:
			if s.value == nil {
				b.WriteString("nil")
			} else {
				s.value.inspect(b, active)
			}
		case *manySlot:
			if s.items == nil {
				b.WriteString("nil")
				continue
			}
			b.WriteByte('[')
			for j, el := range s.items {
				if j > 0 {
					b.WriteString(", ")
				}
				el.inspect(b, active)
			}
			b.WriteByte(']')
		}
	}
	if m.destroyed {
		b.WriteString(" (marked for destruction)")
	}
	b.WriteByte('>')
}

func inspectScalar(k Kind, v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case time.Time:
		return strconv.Quote(jsonScalar(k, x).(string))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return spew.Sprintf("%v", v)
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump returns a detailed, deterministic rendering of Attributes for
// debugging.
func (m *Model) Dump() string {
	return dumpConfig.Sdump(m.Attributes())
}
