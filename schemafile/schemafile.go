// Package schemafile declares attrs types from YAML documents.
//
//	types:
//	  - name: Person
//	    primary_key: id
//	    attributes:
//	      - {name: id, type: integer}
//	      - {name: name, type: string, required: true}
//	    many:
//	      - {name: pets, type: Pet, allow_destroy: true, reject_if: all_blank}
//
// Nested targets given by name resolve lazily, so types may refer to types
// declared later in the same file.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/attrs"
	"github.com/reoring/attrs/cast"
)

// File is the root of a schema document.
type File struct {
	Types []TypeDecl `yaml:"types"`
}

// TypeDecl declares one type. Schema blocks of nested fields use the same
// shape without a name.
type TypeDecl struct {
	Name        string       `yaml:"name"`
	Extends     string       `yaml:"extends"`
	PrimaryKey  any          `yaml:"primary_key"` // string, or false to disable matching
	Destroyable bool         `yaml:"destroyable"`
	Attributes  []AttrDecl   `yaml:"attributes"`
	One         []NestedDecl `yaml:"one"`
	Many        []NestedDecl `yaml:"many"`
}

// AttrDecl declares a scalar attribute.
type AttrDecl struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Default  any    `yaml:"default"`
	Required bool   `yaml:"required"`
}

// NestedDecl declares a One or Many field.
type NestedDecl struct {
	Name            string    `yaml:"name"`
	Type            string    `yaml:"type"`
	Schema          *TypeDecl `yaml:"schema"`
	Extends         string    `yaml:"extends"`
	AllowDestroy    bool      `yaml:"allow_destroy"`
	RejectIf        any       `yaml:"reject_if"` // "all_blank" or a boolean
	Replace         bool      `yaml:"replace"`
	Limit           *int      `yaml:"limit"`
	Initial         any       `yaml:"initial"`
	Default         any       `yaml:"default"`
	CopyErrors      *bool     `yaml:"copy_errors"`
	ErrorsPrefix    *bool     `yaml:"errors_prefix"`
	AttributesAlias *bool     `yaml:"attributes_alias"`
}

// Parse decodes a schema document. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return &f, nil
}

// Load parses r and defines every type in reg, in file order.
func Load(r io.Reader, reg *attrs.Registry) ([]*attrs.Type, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return f.Define(reg)
}

// LoadFile is Load for a path.
func LoadFile(path string, reg *attrs.Registry) ([]*attrs.Type, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	defer fh.Close()
	return Load(fh, reg)
}

// Define declares the file's types in reg. A type can only extend a type
// declared before it.
func (f *File) Define(reg *attrs.Registry) ([]*attrs.Type, error) {
	out := make([]*attrs.Type, 0, len(f.Types))
	for i := range f.Types {
		td := &f.Types[i]
		var b *attrs.Builder
		if td.Extends != "" {
			parent, ok := reg.Lookup(td.Extends)
			if !ok {
				return nil, fmt.Errorf("schemafile: type %s: %w", td.Name, &attrs.UnresolvedTypeError{Name: td.Extends})
			}
			b = reg.Extend(td.Name, parent)
		} else {
			b = reg.Define(td.Name)
		}
		if err := td.apply(b); err != nil {
			return nil, fmt.Errorf("schemafile: type %s: %w", td.Name, err)
		}
		t, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("schemafile: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (td *TypeDecl) apply(b *attrs.Builder) error {
	switch pk := td.PrimaryKey.(type) {
	case nil:
	case string:
		b.PrimaryKey(pk)
	case bool:
		if pk {
			return errors.New("primary_key: true is ambiguous; name the key")
		}
		b.NoPrimaryKey()
	default:
		return fmt.Errorf("primary_key: unsupported value %v", pk)
	}
	if td.Destroyable {
		b.Destroyable()
	}
	for _, ad := range td.Attributes {
		kind, err := cast.ParseKind(ad.Type)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", ad.Name, err)
		}
		var opts []attrs.AttrOption
		if ad.Default != nil {
			opts = append(opts, attrs.Default(ad.Default))
		}
		if ad.Required {
			opts = append(opts, attrs.Required())
		}
		b.Attribute(ad.Name, kind, opts...)
	}
	for i := range td.One {
		if err := td.One[i].declare(b, false); err != nil {
			return fmt.Errorf("one %s: %w", td.One[i].Name, err)
		}
	}
	for i := range td.Many {
		if err := td.Many[i].declare(b, true); err != nil {
			return fmt.Errorf("many %s: %w", td.Many[i].Name, err)
		}
	}
	return nil
}

// declare adds the field to b. Errors in an inline schema are returned here;
// contradicting options such as a type together with a schema are reported
// by b.Build.
func (nd *NestedDecl) declare(b *attrs.Builder, many bool) error {
	opts, err := nd.options()
	if err != nil {
		return err
	}
	var schemaErr error
	if nd.Schema != nil {
		schema := nd.Schema
		opts = append(opts, attrs.Schema(func(sb *attrs.Builder) {
			schemaErr = schema.apply(sb)
		}))
	}
	if many {
		b.Many(nd.Name, opts...)
	} else {
		b.One(nd.Name, opts...)
	}
	return schemaErr
}

func (nd *NestedDecl) options() ([]attrs.NestedOption, error) {
	var opts []attrs.NestedOption
	if nd.Type != "" {
		opts = append(opts, attrs.TargetName(nd.Type))
	}
	if nd.Extends != "" {
		opts = append(opts, attrs.ExtendsName(nd.Extends))
	}
	if nd.AllowDestroy {
		opts = append(opts, attrs.AllowDestroy())
	}
	switch r := nd.RejectIf.(type) {
	case nil:
	case string:
		if r != attrs.AllBlank {
			return nil, fmt.Errorf("reject_if: unsupported predicate %q", r)
		}
		opts = append(opts, attrs.RejectIf(attrs.AllBlank))
	case bool:
		opts = append(opts, attrs.RejectIf(r))
	default:
		return nil, fmt.Errorf("reject_if: unsupported value %v", r)
	}
	if nd.Replace {
		opts = append(opts, attrs.Replace())
	}
	if nd.Limit != nil {
		opts = append(opts, attrs.Limit(*nd.Limit))
	}
	if nd.Initial != nil {
		opts = append(opts, attrs.Initial(nd.Initial))
	}
	if nd.Default != nil {
		opts = append(opts, attrs.DefaultValue(nd.Default))
	}
	if nd.CopyErrors != nil {
		opts = append(opts, attrs.CopyErrors(*nd.CopyErrors))
	}
	if nd.ErrorsPrefix != nil && !*nd.ErrorsPrefix {
		opts = append(opts, attrs.ErrorsWithoutPrefix())
	}
	if nd.AttributesAlias != nil && !*nd.AttributesAlias {
		opts = append(opts, attrs.WithoutAttributesAlias())
	}
	return opts, nil
}
