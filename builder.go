package attrs

import (
	"errors"
	"fmt"
)

// Builder declares a Type. Declaration mistakes are collected and returned
// together by Build.
type Builder struct {
	reg      *Registry
	register bool
	t        *Type
	errs     []error
	built    bool
	declared map[string]bool // canonical names declared by this builder
	overrode map[string]bool // canonical names given a setter by this builder
}

func newBuilder(reg *Registry, name string, parent *Type) *Builder {
	var t *Type
	if parent != nil {
		t = parent.clone(name)
		t.registry = reg
	} else {
		t = &Type{
			name:       name,
			registry:   reg,
			index:      map[string]int{},
			aliases:    map[string]int{},
			primaryKey: DefaultPrimaryKey,
			methods:    map[string]MethodFunc{},
			setters:    map[string]SetterOverride{},
		}
	}
	b := &Builder{reg: reg, t: t, declared: map[string]bool{}, overrode: map[string]bool{}}
	if name == "" {
		b.fail("", "type name is empty")
	}
	return b
}

func (b *Builder) fail(field, reason string) {
	b.errs = append(b.errs, &ConfigError{Type: b.t.name, Field: field, Reason: reason})
}

// AttrOption configures a scalar attribute.
type AttrOption func(*field)

// Default sets the value used when construction input does not mention the
// attribute. It may be a literal, a generator or a Method reference.
func Default(v any) AttrOption {
	return func(f *field) {
		f.def = v
		f.hasDefault = true
	}
}

// Required makes Validate report a blank value.
func Required() AttrOption {
	return func(f *field) { f.required = true }
}

// Attribute declares a scalar field coerced to kind.
func (b *Builder) Attribute(name string, kind Kind, opts ...AttrOption) *Builder {
	f := &field{name: name, kind: kind}
	for _, o := range opts {
		o(f)
	}
	b.declare(f)
	return b
}

// PrimaryKey sets the identity key used when this type is a collection target.
func (b *Builder) PrimaryKey(name string) *Builder {
	if name == "" {
		b.fail("", "primary key name is empty; use NoPrimaryKey to disable matching")
		return b
	}
	b.t.primaryKey = name
	return b
}

// NoPrimaryKey disables identity matching: collection items of this type are
// always appended.
func (b *Builder) NoPrimaryKey() *Builder {
	b.t.primaryKey = ""
	return b
}

// Destroyable lets models of this type be marked for destruction instead of
// being removed when a destroy flag is received.
func (b *Builder) Destroyable() *Builder {
	b.t.destroyable = true
	return b
}

// Method defines a named method usable through Method references.
func (b *Builder) Method(name string, fn MethodFunc) *Builder {
	if fn == nil {
		b.fail("", fmt.Sprintf("method %q has no implementation", name))
		return b
	}
	b.t.methods[name] = fn
	return b
}

// Setter overrides the writer of field. The override receives the generated
// writer as next. field is matched like input keys, so "dateOfBirth" names
// date_of_birth.
func (b *Builder) Setter(field string, fn SetterOverride) *Builder {
	if fn == nil {
		b.fail(field, "setter override is nil")
		return b
	}
	ck := canonicalKey(field)
	b.t.setters[ck] = fn
	b.overrode[ck] = true
	return b
}

// Validate adds a model-level validator run by Model.Validate.
func (b *Builder) Validate(name string, fn ValidatorFunc) *Builder {
	if fn == nil {
		b.fail("", fmt.Sprintf("validator %q is nil", name))
		return b
	}
	b.t.validators = append(b.t.validators, namedValidator{name: name, fn: fn})
	return b
}

// declare adds f, or replaces an earlier (possibly inherited) field with the
// same name. The replacement does not keep anything from the old field,
// including an inherited setter override.
func (b *Builder) declare(f *field) {
	if f.name == "" {
		b.fail("", "field name is empty")
		return
	}
	t := b.t
	ck := canonicalKey(f.name)
	idx, exists := t.index[ck]
	if exists {
		t.fields[idx] = f
		for k, i := range t.aliases {
			if i == idx {
				delete(t.aliases, k)
			}
		}
		if !b.declared[ck] && !b.overrode[ck] {
			delete(t.setters, ck)
		}
	} else {
		idx = len(t.fields)
		t.fields = append(t.fields, f)
		t.index[ck] = idx
	}
	b.declared[ck] = true
	if f.nested != nil && f.nested.alias {
		t.aliases[canonicalKey(f.name+"_attributes")] = idx
	}
}

// Build validates the declarations and returns the type. Types started from a
// Registry are registered under their name.
func (b *Builder) Build() (*Type, error) {
	if b.built {
		return nil, &ConfigError{Type: b.t.name, Reason: "builder already used"}
	}
	for key := range b.t.setters {
		if _, ok := b.t.index[key]; !ok {
			b.fail(key, "setter override for undeclared field")
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	b.built = true
	if b.register && b.reg != nil {
		if err := b.reg.register(b.t); err != nil {
			return nil, err
		}
	}
	return b.t, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Type {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
