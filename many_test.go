package attrs_test

import (
	"errors"
	"testing"

	"github.com/reoring/attrs"
)

func teamType(t *testing.T, destroyable bool, opts ...attrs.NestedOption) *attrs.Type {
	t.Helper()
	reg := attrs.NewRegistry()
	definePerson(reg, "Person", destroyable)
	opts = append([]attrs.NestedOption{attrs.TargetName("Person")}, opts...)
	team, err := reg.Define("Team").Many("people", opts...).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return team
}

func names(ms []*attrs.Model) []any {
	out := make([]any, len(ms))
	for i, m := range ms {
		out[i] = m.Get("name")
	}
	return out
}

func sameNames(t *testing.T, got []*attrs.Model, want ...any) {
	t.Helper()
	g := names(got)
	if len(g) != len(want) {
		t.Fatalf("names want=%v got=%v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("names want=%v got=%v", want, g)
		}
	}
}

func TestMany_MatchByIdentityAndAppend(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{
		"people": []any{map[string]any{"id": 1, "name": "Bob"}},
	})
	bob := m.Many("people")[0]
	err := m.Assign(map[string]any{"people": []any{
		map[string]any{"id": "1", "name": "Harry"},
		map[string]any{"id": "2", "name": "Sam"},
	}})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	people := m.Many("people")
	sameNames(t, people, "Harry", "Sam")
	if people[0] != bob {
		t.Fatalf("matched element must be updated in place")
	}
	if people[0].Get("id") != int64(1) || people[1].Get("id") != int64(2) {
		t.Fatalf("ids want 1,2 got %v,%v", people[0].Get("id"), people[1].Get("id"))
	}
}

func TestMany_MatchedItemIsNotDuplicated(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "name": "Bob"},
		map[string]any{"id": 2, "name": "Sam"},
	}})
	if err := m.Set("people", []any{map[string]any{"id": 2, "name": "Samuel"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Bob", "Samuel")
}

func TestMany_NoPrimaryKeyAlwaysAppends(t *testing.T) {
	reg := attrs.NewRegistry()
	tag := reg.Define("Tag").NoPrimaryKey().Attribute("id", attrs.Integer).Attribute("name", attrs.String).MustBuild()
	post := reg.Define("Post").Many("tags", attrs.Target(tag)).MustBuild()
	m := post.MustNew(map[string]any{"tags": []any{map[string]any{"id": 1, "name": "a"}}})
	if err := m.Set("tags", []any{map[string]any{"id": 1, "name": "b"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("tags"), "a", "b")
}

func TestMany_CustomPrimaryKey(t *testing.T) {
	reg := attrs.NewRegistry()
	reg.Define("Item").PrimaryKey("sku").Attribute("sku", attrs.String).Attribute("name", attrs.String).MustBuild()
	order := reg.Define("Order").Many("items", attrs.TargetName("Item")).MustBuild()
	m := order.MustNew(map[string]any{"items": []any{map[string]any{"sku": "A1", "name": "old"}}})
	if err := m.Set("items", []any{map[string]any{"SKU": "A1", "name": "new"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("items"), "new")
}

func TestMany_DestroyRemoves(t *testing.T) {
	m := teamType(t, false, attrs.AllowDestroy()).MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "name": "Bob"},
		map[string]any{"id": 2, "name": "Sam"},
	}})
	err := m.Set("people", []any{map[string]any{"id": 1, "_destroy": "1"}})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Sam")
}

func TestMany_DestroyMarks(t *testing.T) {
	m := teamType(t, true, attrs.AllowDestroy()).MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "name": "Bob"},
		map[string]any{"id": 2, "name": "Sam"},
	}})
	if err := m.Set("people", []any{map[string]any{"id": 1, "_destroy": true}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	people := m.Many("people")
	sameNames(t, people, "Bob", "Sam")
	if !people[0].MarkedForDestruction() || people[1].MarkedForDestruction() {
		t.Fatalf("only Bob should be marked")
	}
}

func TestMany_DestroyIgnoredWithoutAllowDestroy(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{"people": []any{map[string]any{"id": 1, "name": "Bob"}}})
	if err := m.Set("people", []any{map[string]any{"id": 1, "name": "Harry", "_destroy": "1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Harry")
}

func TestMany_UnmatchedDestroyIsNoop(t *testing.T) {
	m := teamType(t, false, attrs.AllowDestroy()).MustNew(map[string]any{"people": []any{map[string]any{"id": 1, "name": "Bob"}}})
	if err := m.Set("people", []any{
		map[string]any{"id": 9, "name": "Ghost", "_destroy": "1"},
		map[string]any{"name": "New", "_destroy": "1"},
	}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Bob")
}

func TestMany_NilMakesAbsent(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{"people": []any{map[string]any{"name": "Bob"}}})
	if err := m.Set("people", nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	if m.Many("people") != nil || m.Get("people") != nil {
		t.Fatalf("collection should be absent")
	}
	if err := m.Set("people", []any{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := m.Many("people"); got == nil || len(got) != 0 {
		t.Fatalf("empty batch should give an empty, present collection, got %#v", got)
	}
}

func TestMany_IndexKeyedMapping(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{"people_attributes": map[string]any{
		"10": map[string]any{"name": "C"},
		"2":  map[string]any{"name": "B"},
		"0":  map[string]any{"name": "A"},
	}})
	sameNames(t, m.Many("people"), "A", "B", "C")
}

func TestMany_IgnoresMalformedInput(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{"people": []any{map[string]any{"name": "Bob"}}})
	if err := m.Set("people", "Bob"); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Bob")
	if err := m.Set("people", []any{"junk", 4, nil, map[string]any{"name": "Sam"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Bob", "Sam")
}

func TestMany_LimitLeavesCollectionUntouched(t *testing.T) {
	m := teamType(t, false, attrs.Limit(2)).MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "name": "Bob"},
	}})
	before := append([]*attrs.Model(nil), m.Many("people")...)
	err := m.Set("people", []any{
		map[string]any{"id": 1, "name": "Changed"},
		map[string]any{"id": 2, "name": "Sam"},
		map[string]any{"id": 3, "name": "Ann"},
	})
	if !errors.Is(err, attrs.ErrTooManyRecords) {
		t.Fatalf("want ErrTooManyRecords got %v", err)
	}
	var tm *attrs.TooManyRecordsError
	if !errors.As(err, &tm) || tm.Limit != 2 || tm.Got != 3 || tm.Field != "people" {
		t.Fatalf("unexpected error detail: %#v", err)
	}
	after := m.Many("people")
	if len(after) != len(before) || after[0] != before[0] || after[0].Get("name") != "Bob" {
		t.Fatalf("collection changed after limit error: %v", after)
	}
	if err := m.Set("people", []any{map[string]any{"id": 2}, map[string]any{"id": 3}}); err != nil {
		t.Fatalf("batch at the limit should pass: %v", err)
	}
}

func TestMany_ReplaceStartsEmpty(t *testing.T) {
	m := teamType(t, false, attrs.Replace()).MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "name": "Bob"},
	}})
	bob := m.Many("people")[0]
	if err := m.Set("people", []any{map[string]any{"id": 1, "name": "Harry"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	people := m.Many("people")
	sameNames(t, people, "Harry")
	if people[0] == bob {
		t.Fatalf("replace must not reuse old elements")
	}
}

func TestMany_RejectIf(t *testing.T) {
	m := teamType(t, false, attrs.RejectIf(attrs.AllBlank)).MustNew(map[string]any{"people": []any{
		map[string]any{"name": ""},
		map[string]any{"name": "Sam"},
		map[string]any{"name": " ", "id": nil},
	}})
	sameNames(t, m.Many("people"), "Sam")
}

func TestMany_RejectIfAppliesToMatchedItems(t *testing.T) {
	reject := func(item map[string]any) bool { return item["name"] == "nope" }
	m := teamType(t, false, attrs.RejectIf(reject), attrs.AllowDestroy()).MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "name": "Bob"},
	}})
	if err := m.Set("people", []any{map[string]any{"id": 1, "name": "nope", "_destroy": "1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Bob")
}

func TestMany_InstancesAppendedAsIs(t *testing.T) {
	team := teamType(t, false)
	person, err := team.Target("people")
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	p := person.MustNew(map[string]any{"id": 1, "name": "Inst"})
	m := team.MustNew(map[string]any{"people": []any{map[string]any{"id": 1, "name": "Bob"}}})
	if err := m.Set("people", []*attrs.Model{p}); err != nil {
		t.Fatalf("set: %v", err)
	}
	people := m.Many("people")
	sameNames(t, people, "Bob", "Inst")
	if people[1] != p {
		t.Fatalf("instance must be appended as is")
	}
}

// Identity matching runs against the working collection, so a later item in
// the same batch updates an item appended earlier in that batch.
func TestMany_SameBatchMatchesEarlierItems(t *testing.T) {
	m := teamType(t, false).MustNew(nil)
	if err := m.Set("people", []any{
		map[string]any{"id": 7, "name": "First"},
		map[string]any{"id": "7", "name": "Second"},
	}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sameNames(t, m.Many("people"), "Second")
}

func TestMany_InitialAndDefault(t *testing.T) {
	initial := []any{map[string]any{"id": 1, "name": "Seed"}}
	team := teamType(t, false, attrs.Initial(initial))
	m := team.MustNew(map[string]any{"people": []any{
		map[string]any{"id": 1, "date_of_birth": "1980-01-01"},
		map[string]any{"id": 2, "name": "Sam"},
	}})
	people := m.Many("people")
	sameNames(t, people, "Seed", "Sam")
	if people[0].Get("date_of_birth") == nil {
		t.Fatalf("input should merge into the seeded item")
	}

	team = teamType(t, false, attrs.DefaultValue([]any{map[string]any{"name": "Default"}}))
	sameNames(t, team.MustNew(nil).Many("people"), "Default")
	if team.MustNew(map[string]any{"people": nil}).Get("people") != nil {
		t.Fatalf("explicit nil must not be defaulted")
	}
}

func TestMany_UnresolvedTarget(t *testing.T) {
	reg := attrs.NewRegistry()
	team := reg.Define("Team").Many("people", attrs.TargetName("Nobody")).MustBuild()
	_, err := team.New(map[string]any{"people": []any{}})
	if !errors.Is(err, attrs.ErrUnresolvedType) {
		t.Fatalf("want ErrUnresolvedType got %v", err)
	}
}

func TestMany_ZeroPaddedKeyMatchesStoredItem(t *testing.T) {
	m := teamType(t, false).MustNew(map[string]any{
		"people": []any{map[string]any{"id": "010", "name": "Bob"}},
	})
	if got := m.Many("people")[0].Get("id"); got != int64(10) {
		t.Fatalf("id want=10 got=%v", got)
	}
	if err := m.Assign(map[string]any{"people": []any{map[string]any{"id": "010", "name": "Harry"}}}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	sameNames(t, m.Many("people"), "Harry")
	if err := m.Assign(map[string]any{"people": []any{map[string]any{"id": 10, "name": "Sam"}}}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	sameNames(t, m.Many("people"), "Sam")
}
