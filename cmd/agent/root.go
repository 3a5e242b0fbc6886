package agent

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkbird-exporter/cmd/server"
	"github.com/inkbird-exporter/pkg/ble"
	"github.com/inkbird-exporter/pkg/config"
	"github.com/inkbird-exporter/pkg/inkbird"
	"github.com/inkbird-exporter/pkg/logger"
	"github.com/inkbird-exporter/pkg/registers"
	"github.com/inkbird-exporter/pkg/signal"
	"github.com/inkbird-exporter/pkg/util"
)

// defaultCfg 提供各 flag 的默认值
var defaultCfg = config.NewDefaultConfig()

var rootCmd = &cobra.Command{
	Use:           "inkbird-exporter",
	Short:         "Prometheus exporter for Inkbird iBBQ Bluetooth thermometers",
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runServer(cmd.Context(), cfg)
	},
}

// Execute 命令行入口
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "配置文件路径（如 configs/config.yaml），为空时只使用 flag 与环境变量")
	initServerFlags(rootCmd)
	initProbeFlags(rootCmd)
	initMonitorFlags(rootCmd)
	initLogFlags(rootCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	util.PrintBanner(os.Stdout, "inkbird", util.ColorCyan)
	logger.SetDefaultCollector("main")
	logger.Info("configuration loaded",
		zap.String("listen", cfg.Server.Addr),
		zap.String("device", cfg.Probe.Name),
		zap.String("log_level", cfg.Log.Level))

	run := signal.NewRunState()
	stopSignals := signal.NotifyOnSignal(run, log)
	defer stopSignals()

	exp, err := registers.InitPromRegistry(ctx, true, cfg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	httpServer := server.NewHTTPServer(&cfg.Server, logger.Named("http"), exp.Registry, run)
	if err := httpServer.Start(); err != nil {
		_ = exp.Agent.Shutdown(ctx)
		return err
	}

	acquirer := inkbird.NewAcquirer(
		ble.NewBluezTransport(logger.Named("ble")),
		exp.Sink,
		run,
		inkbird.OptionsFromConfig(&cfg.Probe),
		logger.Named("acquirer"),
		inkbird.WithObserver(exp.Observer),
	)
	acquired := make(chan error, 1)
	go func() {
		err := acquirer.Run()
		if err != nil {
			logger.Error("acquisition loop failed", zap.Error(err))
			run.Stop("acquisition failed")
		}
		acquired <- err
	}()

	signal.WaitForShutdown(run, log, func(ctx context.Context) error {
		// 关闭顺序：采集循环 → HTTP → 后台采集器
		var errs []error
		select {
		case <-acquired:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("acquisition loop: %w", ctx.Err()))
		}
		if err := httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := exp.Agent.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("collector agent: %w", err))
		}
		return errors.Join(errs...)
	})

	logger.Info("exporter stopped", zap.String("reason", run.Reason()))
	return nil
}
