package attrs

import "fmt"

// NestedOption configures a One or Many declaration.
type NestedOption func(*nestedConfig)

type nestedConfig struct {
	decl        nestedDecl
	target      *Type
	targetName  string
	schema      func(*Builder)
	extends     *Type
	extendsName string
	sources     int
	limitSet    bool
}

// Target uses an existing type for the nested value.
func Target(t *Type) NestedOption {
	return func(c *nestedConfig) {
		c.target = t
		c.sources++
	}
}

// TargetName refers to a registered type by name. The name is resolved on
// first use, so the type may be defined after this declaration.
func TargetName(name string) NestedOption {
	return func(c *nestedConfig) {
		c.targetName = name
		c.sources++
	}
}

// Schema declares the nested type inline. The type is named
// "<Parent>.<field>" and is not registered.
func Schema(fn func(*Builder)) NestedOption {
	return func(c *nestedConfig) {
		c.schema = fn
		c.sources++
	}
}

// Extends makes an inline Schema start from base.
func Extends(base *Type) NestedOption {
	return func(c *nestedConfig) { c.extends = base }
}

// ExtendsName makes an inline Schema start from a registered type. The base
// must already be defined.
func ExtendsName(name string) NestedOption {
	return func(c *nestedConfig) { c.extendsName = name }
}

// Initial seeds the field before construction input is applied; input is then
// merged on top of it.
func Initial(v any) NestedOption {
	return func(c *nestedConfig) {
		c.decl.initial = v
		c.decl.hasInitial = true
	}
}

// DefaultValue is applied when construction input does not mention the field
// and the field is still empty afterwards.
func DefaultValue(v any) NestedOption {
	return func(c *nestedConfig) {
		c.decl.def = v
		c.decl.hasDefault = true
	}
}

// AllowDestroy honors the "_destroy" flag in submitted items.
func AllowDestroy() NestedOption {
	return func(c *nestedConfig) { c.decl.allowDestroy = true }
}

// RejectIf skips submitted items for which spec is true. See Reject.
func RejectIf(spec any) NestedOption {
	return func(c *nestedConfig) {
		c.decl.rejectIf = spec
		c.decl.hasRejectIf = true
	}
}

// Replace builds new values from each assignment instead of merging into the
// current ones.
func Replace() NestedOption {
	return func(c *nestedConfig) { c.decl.replace = true }
}

// Limit caps the number of items accepted by one collection assignment.
func Limit(n int) NestedOption {
	return func(c *nestedConfig) {
		c.decl.limit = n
		c.decl.hasLimit = true
		c.limitSet = true
	}
}

// CopyErrors turns copying of nested validation issues into the parent on or
// off. It is on by default.
func CopyErrors(on bool) NestedOption {
	return func(c *nestedConfig) { c.decl.copyErrors = on }
}

// ErrorsWithoutPrefix copies nested issues with their own paths instead of
// "<field>.<path>".
func ErrorsWithoutPrefix() NestedOption {
	return func(c *nestedConfig) { c.decl.prefixErrors = false }
}

// WithoutAttributesAlias drops the "<field>_attributes" writer.
func WithoutAttributesAlias() NestedOption {
	return func(c *nestedConfig) { c.decl.alias = false }
}

// One declares a field holding at most one nested model.
func (b *Builder) One(name string, opts ...NestedOption) *Builder {
	return b.nested(name, false, opts)
}

// Many declares a field holding an ordered collection of nested models.
func (b *Builder) Many(name string, opts ...NestedOption) *Builder {
	return b.nested(name, true, opts)
}

func (b *Builder) nested(name string, many bool, opts []NestedOption) *Builder {
	c := &nestedConfig{decl: nestedDecl{many: many, copyErrors: true, prefixErrors: true, alias: true}}
	for _, o := range opts {
		o(c)
	}
	switch {
	case c.sources == 0:
		b.fail(name, "one of Target, TargetName or Schema is required")
		return b
	case c.sources > 1:
		b.fail(name, "Target, TargetName and Schema are mutually exclusive")
		return b
	case c.schema == nil && (c.extends != nil || c.extendsName != ""):
		b.fail(name, "Extends applies to inline Schema only")
		return b
	case c.extends != nil && c.extendsName != "":
		b.fail(name, "Extends and ExtendsName are mutually exclusive")
		return b
	case c.limitSet && !many:
		b.fail(name, "Limit applies to collections only")
		return b
	case c.limitSet && c.decl.limit < 0:
		b.fail(name, fmt.Sprintf("negative limit %d", c.decl.limit))
		return b
	}

	d := c.decl
	switch {
	case c.target != nil:
		d.target = resolvedRef(c.target)
	case c.targetName != "":
		d.target = &typeRef{name: c.targetName, registry: b.reg}
	case c.schema != nil:
		t, ok := b.inline(name, c)
		if !ok {
			return b
		}
		d.target = resolvedRef(t)
	default:
		b.fail(name, "Target is nil")
		return b
	}
	b.declare(&field{name: name, nested: &d})
	return b
}

func (b *Builder) inline(name string, c *nestedConfig) (*Type, bool) {
	base := c.extends
	if c.extendsName != "" {
		if b.reg == nil {
			b.fail(name, fmt.Sprintf("ExtendsName(%q) needs a registry", c.extendsName))
			return nil, false
		}
		t, ok := b.reg.Lookup(c.extendsName)
		if !ok {
			b.fail(name, fmt.Sprintf("base type %q is not defined", c.extendsName))
			return nil, false
		}
		base = t
	}
	sub := newBuilder(b.reg, b.t.name+"."+name, base)
	c.schema(sub)
	t, err := sub.Build()
	if err != nil {
		b.errs = append(b.errs, err)
		return nil, false
	}
	return t, true
}
