package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/attrs"
	"github.com/reoring/attrs/schemafile"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		f    modelFlags
		dump bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Construct a model and print its inspection form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.buildModel(&f)
			if err != nil {
				return err
			}
			if dump {
				_, err = fmt.Fprint(a.out, m.Dump())
			} else {
				_, err = fmt.Fprintln(a.out, m.Inspect())
			}
			if err != nil {
				return err
			}
			return a.report(cmd.Context(), m)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&dump, "dump", false, "print a detailed dump instead")
	return cmd
}

func newTypesCmd(a *app) *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the types declared by a schema file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reg := attrs.NewRegistry()
			types, err := schemafile.LoadFile(schema, reg)
			if err != nil {
				return err
			}
			for _, t := range types {
				if _, err := fmt.Fprintln(a.out, describe(t)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "YAML schema file")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

// describe renders "Name < Parent (key: id): field, field".
func describe(t *attrs.Type) string {
	var b strings.Builder
	b.WriteString(t.Name())
	if p := t.Parent(); p != nil {
		b.WriteString(" < ")
		b.WriteString(p.Name())
	}
	if pk, ok := t.PrimaryKey(); ok {
		fmt.Fprintf(&b, " (key: %s)", pk)
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(t.Fields(), ", "))
	return b.String()
}
