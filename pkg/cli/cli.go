// Package cli builds the portalcfg command line: settings and logger bootstrap,
// engine wiring and the resolve, rules, validate, health and config commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/config"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

// Output formats of command results.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Options configures the root command.
type Options struct {
	Name        string
	Description string
	// EnvPrefix defaults to config.DefaultEnvPrefix.
	EnvPrefix string
	// NewEngine replaces engine construction, mainly in tests.
	NewEngine func(ctx context.Context, s *config.Settings, log logger.Logger) (*Engine, error)
}

type rootState struct {
	opts         Options
	configFile   string
	output       string
	printMetrics bool
}

// NewRootCommand creates the portalcfg command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "portalcfg"
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = config.DefaultEnvPrefix
	}
	if opts.NewEngine == nil {
		opts.NewEngine = NewEngine
	}
	st := &rootState{opts: opts}

	root := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&st.configFile, "config-file", "c", "", "config file path")
	root.PersistentFlags().StringVarP(&st.output, "output", "o", OutputJSON, "output format (json, yaml)")
	root.PersistentFlags().BoolVar(&st.printMetrics, "print-metrics", false, "print collected metrics after the command")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newResolveCommand(st),
		newRulesCommand(st),
		newValidateCommand(st),
		newHealthCommand(st),
		newVersionCommand(st),
		newConfigCommand(st),
	)
	return root
}

// Execute runs cmd and exits non-zero on error.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// LoadConfigAndLogger loads settings with the flag overrides and builds the logger
// they describe. Logs go to stderr.
func LoadConfigAndLogger(configFile, envPrefix string, flags *pflag.FlagSet) (*config.Settings, logger.Logger, error) {
	provider := config.NewProvider(configFile, envPrefix).WithFlags(flags)
	s, err := provider.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewZapLogger(logger.Config{
		Level:  logger.LogLevel(s.Observability.LogLevel),
		Format: logger.LogFormat(s.Observability.LogFormat),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	if strings.EqualFold(s.Observability.LogLevel, string(logger.DebugLevel)) {
		log.Debug("effective configuration", "config", fmt.Sprintf("%+v", *s.Redacted()))
	}
	return s, log, nil
}

// withEngine loads settings, builds the engine, runs fn and tears the engine down.
func (st *rootState) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *Engine) error) error {
	s, log, err := LoadConfigAndLogger(st.configFile, st.opts.EnvPrefix, cmd.Flags())
	if err != nil {
		return err
	}
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := st.opts.NewEngine(ctx, s, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("engine shutdown failed", "error", err)
		}
	}()

	if err := fn(ctx, e); err != nil {
		return err
	}
	if st.printMetrics && e.Metrics != nil {
		return e.Metrics.WriteText(cmd.ErrOrStderr())
	}
	return nil
}

func (st *rootState) print(w io.Writer, v any) error {
	switch st.output {
	case OutputYAML:
		// Round-trip through JSON so records keep their json field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	case OutputJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", st.output)
	}
}
