// Package cmd implements the retailctl command line.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/retailctl/internal/tui"
)

// annotationNoConfig marks commands that run without loading configuration.
const annotationNoConfig = "retailctl/no-config"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{out: os.Stdout, errOut: os.Stderr, styles: tui.DefaultStyles()}

	root := &cobra.Command{
		Use:   "retailctl",
		Short: "Operator console for the RetailShop inventory backend",
		Long: `retailctl signs operators into the RetailShop inventory backend and shows
what their role may access.

The session is kept in ~/.retailctl/session.db and shared by every command
and by the web console started with 'retailctl serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}
			return a.loadConfig()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.configPath, "config", "", "config file (default is $HOME/.retailctl/config.yaml)")
	f.StringVar(&a.opts.dotEnv, "env-file", ".env", "optional dotenv file with RETAILCTL_* variables")
	f.StringVar(&a.opts.apiURL, "api-url", "", "backend API base URL")
	f.StringVar(&a.opts.storage, "storage", "", "session database path (\":memory:\" keeps nothing)")
	f.StringVar(&a.opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&a.opts.logFormat, "log-format", "", "log format (text, json)")
	f.StringVarP(&a.opts.format, "format", "o", "", "output format (text, json, yaml)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newRegisterCmd(a),
		newPasswordCmd(a),
		newWhoamiCmd(a),
		newProfileCmd(a),
		newCanCmd(a),
		newNavCmd(a),
		newOpenCmd(a),
		newServeCmd(a),
		newDoctorCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
		newCompletionCmd(),
	)
	return root, a
}

// ExecuteContext runs the command tree with ctx and releases the session
// storage afterwards.
func ExecuteContext(ctx context.Context) error {
	root, a := newRootCmd()
	defer a.close()
	return root.ExecuteContext(ctx)
}
