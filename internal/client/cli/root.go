package cli

import (
	"github.com/dmitrijs2005/conduit/internal/client/config"
	"github.com/spf13/cobra"
)

// runFunc is a command body with the App already built.
type runFunc func(a *App, cmd *cobra.Command, args []string) error

type root struct {
	newApp AppFactory
	app    *App
}

func (r *root) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return fn(r.app, cmd, args)
	}
}

// NewRootCmd creates the conduit command tree. newApp is called once per
// invocation after flags, environment and config file are loaded.
func NewRootCmd(newApp AppFactory) *cobra.Command {
	r := &root{newApp: newApp}

	cmd := &cobra.Command{
		Use:           "conduit",
		Short:         "Conduit - command-line client for the Conduit server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Root().PersistentFlags()
			cfg, err := config.Load(flags)
			if err != nil {
				return err
			}
			app, err := r.newApp(cfg)
			if err != nil {
				return err
			}
			app.jsonOut, _ = flags.GetBool("json")
			app.out = cmd.OutOrStdout()
			r.app = app
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if r.app == nil {
				return nil
			}
			return r.app.Close()
		},
	}

	config.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().Bool("json", false, "print results as JSON")

	cmd.AddCommand(
		r.newPingCmd(),
		r.newRegisterCmd(),
		r.newLoginCmd(),
		r.newLogoutCmd(),
		r.newMeCmd(),
		r.newProfileCmd(),
		r.newPasswdCmd(),
		r.newAvatarCmd(),
		r.newArticleCmd(),
		r.newFavoriteCmd(),
		r.newUnfavoriteCmd(),
		r.newTagCmd(),
		r.newTagsCmd(),
	)

	return cmd
}

func (r *root) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable and serving",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			if err := a.client.Ping(ctx); err != nil {
				return err
			}
			return a.printLine("Server is serving")
		}),
	}
}
