package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/factoryflow/internal/server"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		persist bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plans over HTTP",
		Long: `Serve plans over HTTP. The recipe file is loaded once; selections made through
PUT /v1/items/{name}/recipe apply to later requests and, with --persist, are
saved to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			db, err := c.loadDatabase(ctx)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := server.Options{
				RequestTimeout: cfg.Server.RequestTimeout.Duration,
				Logger:         loggerFromContext(ctx),
			}
			if persist {
				opts.OnSelect = func(item string, index int) error {
					cfg.SetSelection(item, index)
					return cfg.Save()
				}
			}

			if listen == "" {
				listen = cfg.Server.Listen
			}
			printInfo(cmd.OutOrStdout(), "Serving %d recipes on %s", len(db.Recipes()), StyleHighlight.Render(listen))
			printNextStep(cmd.OutOrStdout(), "Try", `curl -d '{"spec":"1,<item>"}' http://`+displayAddr(listen)+"/v1/plan")
			return server.New(db, runner, opts).ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&persist, "persist", false, "save recipe selections to the config file")
	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
