package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"neighborgrid/internal/config"
	"neighborgrid/internal/logger"
)

type rootOptions struct {
	cfgPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "neighborgrid",
		Short:         "Home battery dispatch and community energy pool simulator",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
	root.AddCommand(newSingleCmd(opts), newCommunityCmd(opts))
	return root
}

// load reads the config and applies its logging level.
func (o *rootOptions) load() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.Level)
	return cfg, logger.New("cli"), nil
}

// outputPath returns flagValue when set, otherwise name under the configured
// output directory.
func outputPath(cfg *config.Config, flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(cfg.Output.Dir, name)
}
