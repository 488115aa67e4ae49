// Package cmd provides the ftsctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/app"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/logger"
)

type globalOptions struct {
	configPath    string
	logLevel      string
	indexRoot     string
	cursorBackend string
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "ftsctl",
		Short: "Operate full-text indexes from the command line",
		Long: `ftsctl writes to and searches the indexes under the configured index root.

Writes run in-process by default; --async queues them on Kafka for the
indexer service instead.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.indexRoot, "index-root", "", "Override index.rootPath")
	cmd.PersistentFlags().StringVar(&opts.cursorBackend, "cursor-backend", "", "Override cursor.backend (redis, local)")

	cmd.AddCommand(
		newWriteCmd(opts, writeAdd),
		newWriteCmd(opts, writeUpdate),
		newDeleteCmd(opts),
		newDropCmd(opts),
		newSearchCmd(opts, false),
		newSearchCmd(opts, true),
		newBenchCmd(),
	)
	return cmd
}

// Execute runs the root command with a context cancelled on interrupt.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.indexRoot != "" {
		cfg.Index.RootPath = o.indexRoot
	}
	if o.cursorBackend != "" {
		cfg.Cursor.Backend = o.cursorBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads config and builds the shared components. The caller closes the
// returned app.
func (o *globalOptions) open(ctx context.Context) (*app.App, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("%w (use --cursor-backend local to run without redis)", err)
	}
	return a, nil
}
