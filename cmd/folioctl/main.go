// Command folioctl edits the portfolio content from a terminal, against the
// same store the web server uses.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/folio-cms/folio/internal/app"
	"github.com/folio-cms/folio/internal/config"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/spf13/cobra"
)

type cli struct {
	logLevel string
	cfg      *config.Config
	backend  *app.Backend
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "folioctl",
		Short:         "Edit portfolio content from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(c.logLevel)
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			b, err := app.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.cfg, c.backend = cfg, b
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.backend != nil {
				c.backend.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "debug|info|warn|error")
	root.AddCommand(c.seedCmd(), c.editCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
