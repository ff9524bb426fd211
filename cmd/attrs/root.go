package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/attrs/i18n"
)

// app carries what every subcommand shares.
type app struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	cfgFile string
	v       *viper.Viper
	logger  *log.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, v: viper.New()}
	root := &cobra.Command{
		Use:           "attrs",
		Short:         "Assign nested attributes from JSON using YAML-declared types",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("lang", "en", "language of issue messages (en, ja)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.Bool("pretty", false, "indent JSON output")
	pf.String("format", "json", "format of stdin input (json, yaml)")
	pf.Bool("strict", false, "refuse JSON input with duplicate keys")
	for _, name := range []string{"lang", "log-level", "pretty", "format", "strict"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(newAssignCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newTypesCmd(a))
	return root
}

// configure resolves settings from flags, ATTRS_* variables and the optional
// config file, in that order of precedence.
func (a *app) configure() error {
	a.v.SetEnvPrefix("ATTRS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	}

	level, err := log.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	a.logger = log.NewWithOptions(a.errOut, log.Options{
		Prefix: "attrs",
		Level:  level,
	})
	if a.cfgFile != "" {
		a.logger.Debug("config loaded", "file", a.v.ConfigFileUsed())
	}

	lang := a.v.GetString("lang")
	i18n.SetLanguage(lang)
	a.logger.Debug("language", "lang", lang)
	return nil
}
