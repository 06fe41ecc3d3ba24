package dlpagent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/redactyl/dlpagent/internal/agent"
	"github.com/redactyl/dlpagent/internal/audit"
	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/extract"
	"github.com/redactyl/dlpagent/internal/gateway"
	"github.com/redactyl/dlpagent/internal/logging"
)

var (
	flagRemoteConfig bool
	flagOnce         bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the controller and scan whenever it asks",
		Long: "run starts the agent loop: ask the controller whether to scan, walk the scan path, " +
			"send censored findings in one batch, signal completion and sleep for the polling interval.",
		Args: cobra.NoArgs,
		RunE: runAgent,
	}
	cmd.Flags().BoolVar(&flagRemoteConfig, "remote-config", false, "fetch configuration from the controller once at startup and merge it over the local file")
	cmd.Flags().BoolVar(&flagOnce, "once", false, "run a single cycle and exit")
	rootCmd.AddCommand(cmd)
}

func runAgent(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fc, path, err := loadFileConfig()
	if err != nil {
		return err
	}
	boot, bootCloser, err := newLogger(cmd, "")
	if err != nil {
		return err
	}
	defer bootCloser.Close()

	if flagRemoteConfig {
		ep, err := fc.Endpoint()
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		remote, err := gateway.New(ep, gateway.Options{UserAgent: "dlpagent/" + version}, boot).FetchConfig(ctx)
		if err != nil {
			return fmt.Errorf("remote config: %w", err)
		}
		fc = config.Merge(fc, remote)
		boot.Info().Str("endpoint", ep).Msg("Remote configuration merged")
	}
	cfg, err := fc.Resolve()
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	logger := boot
	if cfg.LogFile != "" {
		l, closer, err := newLogger(cmd, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = l
	}

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug().Msgf(format, args...)
	}))
	done := logging.OperationStart(logger, "agent")
	defer done()

	client := gateway.New(cfg.Endpoint, gateway.OptionsFromConfig(cfg, "dlpagent/"+version), logger)
	opts := []agent.Option{agent.WithVersion(version)}
	if cfg.AuditLog != "" {
		opts = append(opts, agent.WithAudit(audit.New(cfg.AuditLog)))
	}
	a := agent.New(cfg, client, extract.New(), logger, opts...)

	if flagOnce {
		return a.RunCycle(ctx)
	}
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
