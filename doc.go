// Package attrs assigns untrusted form data to declared attributes and
// reconciles nested objects and collections.
//
// - Types are declared with a Builder: typed scalar attributes with defaults,
//   nested One/Many fields with initial/default values, reject predicates,
//   destroy flags, replace mode and collection limits
// - Assignment is permissive: unknown keys, malformed shapes and rejected
//   items are ignored; only declaration mistakes, collection limits and
//   errors raised by user hooks are returned
// - Validation issues of nested models are copied into the parent under
//   "field.path" / "field[i].path"
//
// Design policy:
// - Keep the public API in the root package; coercion lives in cast/, messages
//   in i18n/, YAML declarations in schemafile/, document decoding in input/
//   and the CLI under cmd/attrs.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg := attrs.NewRegistry()
//	reg.Define("Person").
//		Attribute("id", attrs.Integer).
//		Attribute("name", attrs.String, attrs.Required()).
//		MustBuild()
//	team := reg.Define("Team").
//		Many("people", attrs.TargetName("Person"), attrs.AllowDestroy()).
//		MustBuild()
//
//	m, err := team.New(map[string]any{"people": []any{map[string]any{"id": 1, "name": "Bob"}}})
//	err = m.Assign(map[string]any{"people_attributes": map[string]any{
//		"0": map[string]any{"id": "1", "name": "Harry"},
//	}})
//	issues := m.Validate(ctx)
package attrs
