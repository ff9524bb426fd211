package attrs

import (
	"context"
	"slices"
	"sync"

	"github.com/reoring/attrs/cast"
)

// Kind is the declared scalar type of an attribute.
type Kind = cast.Kind

const (
	Any     = cast.Any
	String  = cast.String
	Integer = cast.Integer
	Float   = cast.Float
	Boolean = cast.Boolean
	Date    = cast.Date
	Time    = cast.Time
)

// DefaultPrimaryKey is the identity key used to match collection items unless
// the target type declares another one.
const DefaultPrimaryKey = "id"

// SetterOverride replaces the generated writer of a field. next runs the
// generated behavior and may be called zero or more times.
type SetterOverride func(m *Model, value any, next func(any) error) error

// ValidatorFunc checks a model. A returned Issues is kept as is; errors with
// an issue form (TooManyRecordsError, UnknownAttributeError) use it; any other
// error becomes a single CodeInvalid issue on the model.
type ValidatorFunc func(ctx context.Context, m *Model) error

// Type is an immutable set of declarations shared by all its models.
type Type struct {
	name        string
	parent      *Type
	registry    *Registry
	fields      []*field
	index       map[string]int // canonical field name -> fields index
	aliases     map[string]int // canonical "<field>_attributes" -> fields index
	primaryKey  string         // "" when identity matching is disabled
	destroyable bool
	methods     map[string]MethodFunc
	setters     map[string]SetterOverride // keyed by canonical field name
	validators  []namedValidator
}

type namedValidator struct {
	name string
	fn   ValidatorFunc
}

type field struct {
	name       string
	kind       Kind
	def        any
	hasDefault bool
	required   bool
	nested     *nestedDecl // nil for scalar attributes
}

type nestedDecl struct {
	many         bool
	target       *typeRef
	initial      any
	hasInitial   bool
	def          any
	hasDefault   bool
	allowDestroy bool
	rejectIf     any
	hasRejectIf  bool
	replace      bool
	limit        int
	hasLimit     bool
	copyErrors   bool
	prefixErrors bool
	alias        bool
}

// typeRef resolves a nested target by name on first use. Only a successful
// lookup is cached; a miss is retried on the next use.
type typeRef struct {
	name     string
	registry *Registry
	mu       sync.Mutex
	t        *Type
}

func resolvedRef(t *Type) *typeRef {
	return &typeRef{name: t.name, t: t}
}

func (r *typeRef) resolve() (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.t != nil {
		return r.t, nil
	}
	if r.registry == nil {
		return nil, &UnresolvedTypeError{Name: r.name}
	}
	t, ok := r.registry.Lookup(r.name)
	if !ok {
		return nil, &UnresolvedTypeError{Name: r.name}
	}
	r.t = t
	return t, nil
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Parent returns the type this one was extended from, or nil.
func (t *Type) Parent() *Type { return t.parent }

// IsA reports whether t is other or extends it.
func (t *Type) IsA(other *Type) bool {
	for c := t; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// PrimaryKey returns the identity key name; ok is false when matching is
// disabled for this type.
func (t *Type) PrimaryKey() (name string, ok bool) {
	return t.primaryKey, t.primaryKey != ""
}

// Destroyable reports whether models of t support destruction marking.
func (t *Type) Destroyable() bool { return t.destroyable }

// Fields returns the declared field names in declaration order.
func (t *Type) Fields() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.name
	}
	return out
}

// Has reports whether name (or its "_attributes" alias) is writable on t.
func (t *Type) Has(name string) bool {
	_, _, ok := t.writable(name)
	return ok
}

// Target returns the resolved type of a nested field.
func (t *Type) Target(name string) (*Type, error) {
	i, ok := t.index[canonicalKey(name)]
	if !ok || t.fields[i].nested == nil {
		return nil, &UnknownAttributeError{Type: t.name, Name: name}
	}
	return t.fields[i].nested.target.resolve()
}

func (t *Type) readable(name string) (int, bool) {
	i, ok := t.index[canonicalKey(name)]
	return i, ok
}

// writable resolves a writer name. alias is true for "<field>_attributes".
func (t *Type) writable(name string) (idx int, alias bool, ok bool) {
	ck := canonicalKey(name)
	if i, ok := t.index[ck]; ok {
		return i, false, true
	}
	if i, ok := t.aliases[ck]; ok {
		return i, true, true
	}
	return 0, false, false
}

// clone copies the declaration tables so the copy can be changed without
// touching t. Field declarations themselves are never mutated in place.
func (t *Type) clone(name string) *Type {
	c := &Type{
		name:        name,
		parent:      t,
		registry:    t.registry,
		fields:      slices.Clone(t.fields),
		index:       make(map[string]int, len(t.index)),
		aliases:     make(map[string]int, len(t.aliases)),
		primaryKey:  t.primaryKey,
		destroyable: t.destroyable,
		methods:     make(map[string]MethodFunc, len(t.methods)),
		setters:     make(map[string]SetterOverride, len(t.setters)),
		validators:  slices.Clone(t.validators),
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	for k, v := range t.aliases {
		c.aliases[k] = v
	}
	for k, v := range t.methods {
		c.methods[k] = v
	}
	for k, v := range t.setters {
		c.setters[k] = v
	}
	return c
}

// Registry holds named types so nested fields can refer to them by name,
// including types defined later.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*Type{}}
}

// Define starts a new root type that is registered on Build.
func (r *Registry) Define(name string) *Builder {
	b := newBuilder(r, name, nil)
	b.register = true
	return b
}

// Extend starts a subtype of parent. The subtype starts with a copy of the
// parent's declarations; redeclaring a field replaces the inherited one.
func (r *Registry) Extend(name string, parent *Type) *Builder {
	b := newBuilder(r, name, parent)
	b.register = true
	return b
}

// Lookup returns a registered type.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// MustLookup is like Lookup but panics when the type is missing.
func (r *Registry) MustLookup(name string) *Type {
	t, ok := r.Lookup(name)
	if !ok {
		panic(&UnresolvedTypeError{Name: name})
	}
	return t
}

// Names returns registered type names in definition order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (r *Registry) register(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[t.name]; dup {
		return &ConfigError{Type: t.name, Reason: "type is already defined"}
	}
	r.types[t.name] = t
	r.order = append(r.order, t.name)
	return nil
}

// Define starts a standalone type that is not registered anywhere. Nested
// fields of such a type must use Target or Schema.
func Define(name string) *Builder {
	return newBuilder(nil, name, nil)
}

// Extend starts an unregistered subtype of parent. Nested targets given by
// name still resolve through the parent's registry.
func Extend(name string, parent *Type) *Builder {
	return newBuilder(parent.registry, name, parent)
}
