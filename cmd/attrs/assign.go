package main

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/attrs"
	"github.com/reoring/attrs/input"
	"github.com/reoring/attrs/schemafile"
)

// modelFlags are the inputs shared by assign and inspect.
type modelFlags struct {
	schema  string
	typ     string
	input   string
	updates []string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.schema, "schema", "", "YAML schema file")
	fl.StringVar(&f.typ, "type", "", "type to construct")
	fl.StringVar(&f.input, "input", "-", "construction input, JSON or YAML (- for stdin)")
	fl.StringArrayVar(&f.updates, "update", nil, "attributes assigned after construction, repeatable")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("type")
}

func newAssignCmd(a *app) *cobra.Command {
	var f modelFlags
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Construct a model, apply updates, validate and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.buildModel(&f)
			if err != nil {
				return err
			}
			if err := a.report(cmd.Context(), m); err != nil {
				return err
			}
			return a.writeJSON(m)
		},
	}
	f.register(cmd)
	return cmd
}

// buildModel loads the schema, constructs the model from the input and
// assigns every update in order.
func (a *app) buildModel(f *modelFlags) (*attrs.Model, error) {
	reg := attrs.NewRegistry()
	if _, err := schemafile.LoadFile(f.schema, reg); err != nil {
		return nil, err
	}
	a.logger.Debug("schema loaded", "file", f.schema, "types", reg.Names())
	t, ok := reg.Lookup(f.typ)
	if !ok {
		return nil, &attrs.UnresolvedTypeError{Name: f.typ}
	}

	input, err := a.readAttributes(f.input)
	if err != nil {
		return nil, err
	}
	m, err := t.New(input)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", f.typ, err)
	}
	for i, path := range f.updates {
		update, err := a.readAttributes(path)
		if err != nil {
			return nil, err
		}
		if err := m.Assign(update); err != nil {
			return nil, fmt.Errorf("update %d (%s): %w", i+1, path, err)
		}
		a.logger.Debug("update applied", "file", path)
	}
	return m, nil
}

// readAttributes decodes one document. The format follows the file
// extension; stdin uses --format.
func (a *app) readAttributes(path string) (map[string]any, error) {
	opt := input.Options{Strict: a.v.GetBool("strict")}
	var r io.Reader = a.in
	if path == "-" {
		f, err := input.ParseFormat(a.v.GetString("format"))
		if err != nil {
			return nil, err
		}
		opt.Format = f
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		r = fh
		opt.Format = input.FormatOf(path)
	}
	out, warnings, err := input.Decode(r, opt)
	for _, w := range warnings {
		a.logger.Warn(w.Message, "file", path, "path", w.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// report validates m and writes its issues to stderr. Invalid models end the
// command with status 1.
func (a *app) report(ctx context.Context, m *attrs.Model) error {
	if ctx == nil {
		ctx = context.Background()
	}
	iss := m.Validate(attrs.WithValidationContext(ctx, "cli"))
	if len(iss) == 0 {
		return nil
	}
	for _, is := range iss {
		path := is.Path
		if path == "" {
			path = "(model)"
		}
		fmt.Fprintf(a.errOut, "%s: %s\n", path, is.Message)
	}
	a.logger.Warn("model is invalid", "type", m.Type().Name(), "issues", len(iss))
	return &exitError{code: 1}
}

func (a *app) writeJSON(m *attrs.Model) error {
	var (
		b   []byte
		err error
	)
	if a.v.GetBool("pretty") {
		b, err = json.MarshalIndent(m, "", "  ")
	} else {
		b, err = json.Marshal(m)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}
