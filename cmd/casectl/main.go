package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acompanha/acompanha/internal/config"
	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/records/repository"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// cliConfig is shared by every subcommand.
type cliConfig struct {
	dbPath   string
	logLevel string
	cfg      *config.Config
}

func newRootCommand() *cobra.Command {
	cc := &cliConfig{}
	cmd := &cobra.Command{
		Use:           "casectl",
		Short:         "Operate on the case-record document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cc.cfg = cfg
			if cc.logLevel == "" {
				cc.logLevel = cfg.LogLevel
			}
			logger.Init(cc.logLevel)
			if cc.dbPath == "" {
				cc.dbPath = cfg.Store.Path
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	cmd.PersistentFlags().StringVar(&cc.dbPath, "db", "", "document file (defaults to DB_FILE)")
	cmd.PersistentFlags().StringVar(&cc.logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")
	cmd.AddCommand(
		newSeedUserCommand(cc),
		newHashPasswordCommand(),
		newCardsCommand(cc),
		newSnapshotCommand(cc),
	)
	return cmd
}

func (cc *cliConfig) store() (*document.Store, error) {
	return document.Open(cc.dbPath)
}

func (cc *cliConfig) repo() (*repository.Repository, *document.Store, error) {
	s, err := cc.store()
	if err != nil {
		return nil, nil, err
	}
	return repository.New(s), s, nil
}
