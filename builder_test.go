package attrs_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reoring/attrs"
)

func ctxBG() context.Context { return context.Background() }

func TestBuild_ConfigurationErrors(t *testing.T) {
	reg := attrs.NewRegistry()
	person := definePerson(reg, "Person", false)
	cases := []struct {
		name  string
		build func() (*attrs.Type, error)
		want  string
	}{
		{"target and schema", func() (*attrs.Type, error) {
			return reg.Define("A").One("x", attrs.Target(person), attrs.Schema(func(*attrs.Builder) {})).Build()
		}, "mutually exclusive"},
		{"no target", func() (*attrs.Type, error) {
			return reg.Define("B").Many("x").Build()
		}, "required"},
		{"limit on one", func() (*attrs.Type, error) {
			return reg.Define("C").One("x", attrs.Target(person), attrs.Limit(2)).Build()
		}, "collections only"},
		{"negative limit", func() (*attrs.Type, error) {
			return reg.Define("D").Many("x", attrs.Target(person), attrs.Limit(-1)).Build()
		}, "negative limit"},
		{"extends without schema", func() (*attrs.Type, error) {
			return reg.Define("E").Many("x", attrs.Target(person), attrs.Extends(person)).Build()
		}, "inline Schema only"},
		{"unknown base", func() (*attrs.Type, error) {
			return reg.Define("F").Many("x", attrs.Schema(func(*attrs.Builder) {}), attrs.ExtendsName("Nope")).Build()
		}, "not defined"},
		{"setter for undeclared field", func() (*attrs.Type, error) {
			return reg.Define("G").Setter("x", func(*attrs.Model, any, func(any) error) error { return nil }).Build()
		}, "undeclared"},
		{"duplicate type", func() (*attrs.Type, error) {
			return reg.Define("Person").Build()
		}, "already defined"},
	}
	for _, c := range cases {
		_, err := c.build()
		if !errors.Is(err, attrs.ErrConfiguration) {
			t.Fatalf("%s: want ErrConfiguration got %v", c.name, err)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: error %q should mention %q", c.name, err, c.want)
		}
	}
}

func TestBuild_InlineSchemaWithBase(t *testing.T) {
	reg := attrs.NewRegistry()
	reg.Define("Named").Attribute("name", attrs.String).MustBuild()
	team := reg.Define("Team").
		Many("pets", attrs.ExtendsName("Named"), attrs.Schema(func(b *attrs.Builder) {
			b.Attribute("species", attrs.String)
		})).
		MustBuild()
	pet, err := team.Target("pets")
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if pet.Name() != "Team.pets" {
		t.Fatalf("inline name want=Team.pets got=%s", pet.Name())
	}
	m := team.MustNew(map[string]any{"pets": []any{map[string]any{"name": "Rex", "species": "dog"}}})
	p := m.Many("pets")[0]
	if p.Get("name") != "Rex" || p.Get("species") != "dog" {
		t.Fatalf("inline type fields missing: %v", p)
	}
	if _, ok := reg.Lookup("Team.pets"); ok {
		t.Fatalf("inline types are not registered")
	}
}

func TestBuild_LazyNameResolutionAllowsForwardAndSelfReferences(t *testing.T) {
	reg := attrs.NewRegistry()
	node := reg.Define("Node").
		Attribute("name", attrs.String).
		Many("children", attrs.TargetName("Node")).
		One("owner", attrs.TargetName("Owner")).
		MustBuild()
	reg.Define("Owner").Attribute("name", attrs.String).MustBuild()

	m := node.MustNew(map[string]any{
		"name":  "root",
		"owner": map[string]any{"name": "me"},
		"children": []any{
			map[string]any{"name": "leaf", "children": []any{map[string]any{"name": "deep"}}},
		},
	})
	leaf := m.Many("children")[0]
	if leaf.Many("children")[0].Get("name") != "deep" {
		t.Fatalf("self reference not resolved: %v", m)
	}
	if m.One("owner").Type().Name() != "Owner" {
		t.Fatalf("forward reference not resolved")
	}
	if got := reg.Names(); len(got) != 2 || got[0] != "Node" || got[1] != "Owner" {
		t.Fatalf("names want [Node Owner] got %v", got)
	}
}

func TestTargetName_RetriedUntilDefined(t *testing.T) {
	reg := attrs.NewRegistry()
	team := reg.Define("Team").Many("people", attrs.TargetName("Person")).MustBuild()

	if _, err := team.Target("people"); !errors.Is(err, attrs.ErrUnresolvedType) {
		t.Fatalf("want ErrUnresolvedType before Person exists, got %v", err)
	}
	if _, err := team.New(map[string]any{"people": []any{map[string]any{"name": "Bob"}}}); !errors.Is(err, attrs.ErrUnresolvedType) {
		t.Fatalf("want ErrUnresolvedType from New, got %v", err)
	}

	person := definePerson(reg, "Person", false)
	got, err := team.Target("people")
	if err != nil || got != person {
		t.Fatalf("want Person after definition, got %v err=%v", got, err)
	}
	m, err := team.New(map[string]any{"people": []any{map[string]any{"name": "Bob"}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sameNames(t, m.Many("people"), "Bob")
}
