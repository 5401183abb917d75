package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/config"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configschema"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configsource"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/health"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/validation"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/version"
)

// ErrInvalid is returned by the validate command when the payload fails validation.
var ErrInvalid = errors.New("payload is invalid")

// ErrUnhealthy is returned by the health command when a dependency is unhealthy.
var ErrUnhealthy = errors.New("engine is unhealthy")

func domainNames() string {
	names := make([]string, len(configsource.Domains))
	for i, d := range configsource.Domains {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

func newResolveCommand(st *rootState) *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "resolve <domain>",
		Short: "Resolve a configuration domain merged over its defaults",
		Long:  "Resolve a configuration domain merged over its defaults. Domains: " + domainNames() + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, ok := configsource.ParseDomain(args[0])
			if !ok || domain == configsource.DomainValidationRules {
				return fmt.Errorf("%w: %s (known: %s)", configsource.ErrUnknownDomain, args[0], domainNames())
			}
			return st.withEngine(cmd, func(ctx context.Context, e *Engine) error {
				v, err := e.Resolver.Resolve(ctx, domain, e.Settings.Service.Environment, selector)
				if err != nil {
					return err
				}
				return st.print(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringVar(&selector, "selector", "", "form type, system module or entity type scoping the fetch")
	return cmd
}

type ruleView struct {
	Field       string   `json:"field"`
	Constraints []string `json:"constraints"`
}

type rulesView struct {
	EntityType string     `json:"entityType"`
	Fields     []ruleView `json:"fields"`
}

func newRulesCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "rules <entityType>",
		Short: "Show the dynamic validation rules of an entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withEngine(cmd, func(ctx context.Context, e *Engine) error {
				rs := e.Rules.ResolveRules(ctx, args[0], e.Settings.Service.Environment)
				view := rulesView{EntityType: rs.EntityType, Fields: []ruleView{}}
				for _, f := range rs.Fields {
					rv := ruleView{Field: f.Field}
					for _, c := range f.Constraints {
						rv.Constraints = append(rv.Constraints, describeConstraint(c))
					}
					view.Fields = append(view.Fields, rv)
				}
				return st.print(cmd.OutOrStdout(), view)
			})
		},
	}
}

func describeConstraint(c validation.Constraint) string {
	switch c := c.(type) {
	case validation.Required:
		return "required"
	case validation.MinLength:
		return fmt.Sprintf("minLength=%d", c.N)
	case validation.MaxLength:
		return fmt.Sprintf("maxLength=%d", c.N)
	case validation.Pattern:
		if c.Email {
			return "email"
		}
		return "pattern=" + c.Regexp.String()
	case validation.IsNumber:
		return "number"
	case validation.Min:
		return fmt.Sprintf("min=%g", c.Bound)
	case validation.Max:
		return fmt.Sprintf("max=%g", c.Bound)
	case validation.OneOf:
		return "enum=" + strings.Join(c.Values, "|")
	default:
		return fmt.Sprintf("%T", c)
	}
}

func newValidateCommand(st *rootState) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate <entityType>",
		Short: "Validate a JSON payload against the rules of an entity type",
		Long: "Validate a JSON payload against the dynamic rules of an entity type, " +
			"falling back to the built-in rules when none are available. Reads stdin when --file is \"-\".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := readCandidate(cmd, file)
			if err != nil {
				return err
			}
			return st.withEngine(cmd, func(ctx context.Context, e *Engine) error {
				out := e.Validator.Validate(ctx, args[0], candidate, e.Settings.Service.Environment)
				if out.Errors == nil {
					out.Errors = []validation.ValidationError{}
				}
				if err := st.print(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				if !out.Valid() {
					return fmt.Errorf("%w: %d error(s)", ErrInvalid, len(out.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON payload file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readCandidate(cmd *cobra.Command, file string) (map[string]any, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	var candidate map[string]any
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return candidate, nil
}

func newHealthCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the config service, cache store and circuit breaker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withEngine(cmd, func(ctx context.Context, e *Engine) error {
				res := e.Health.Check(ctx)
				if err := st.print(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if res.Status == health.StatusUnhealthy {
					return ErrUnhealthy
				}
				return nil
			})
		},
	}
}

func newVersionCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.print(cmd.OutOrStdout(), version.Current(st.opts.Name))
		},
	}
}

func newConfigCommand(st *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect portalcfg settings",
	}

	var showSecrets bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.NewProvider(st.configFile, st.opts.EnvPrefix).WithFlags(cmd.Flags()).Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !showSecrets {
				s = s.Redacted()
			}
			return printSettings(cmd, s)
		},
	}
	show.Flags().BoolVar(&showSecrets, "show-secrets", false, "show credentials and passwords")

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := configschema.BuildSchema(nil)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sc)
		},
	}

	cmd.AddCommand(show, schema)
	return cmd
}

func printSettings(cmd *cobra.Command, s *config.Settings) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return enc.Close()
}
