package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/retailctl/internal/config"
	"github.com/felixgeelhaar/retailctl/internal/tui"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View retailctl configuration",
		Long: `Inspect the effective configuration: built-in defaults, then
~/.retailctl/config.yaml, then RETAILCTL_* environment variables (use __ for
nesting, e.g. RETAILCTL_CONSOLE__ADDR), then command-line flags.

Examples:
  retailctl config view
  retailctl config get console.addr
  retailctl config path
  retailctl config init`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Display the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.render(a.cfg, func() string {
					data, err := yaml.Marshal(a.cfg)
					if err != nil {
						return err.Error()
					}
					return strings.TrimRight(string(data), "\n")
				})
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Long:  `Print a value of the effective configuration by dotted key, e.g. log.level.`,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := lookupKey(a.cfg, args[0])
				if err != nil {
					return err
				}
				a.println(fmt.Sprint(v))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a.println(a.cfg.Path())
				return nil
			},
		},
		newConfigInitCmd(a),
	)
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Path()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			a.println(tui.Success(a.styles, "Wrote "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// lookupKey resolves a dotted key against the YAML form of cfg.
func lookupKey(cfg *config.Config, key string) (any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var cur any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
	}
	return cur, nil
}
