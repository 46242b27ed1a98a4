package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/apiserver"
	"github.com/cappelaere/wai-bee/internal/auth"
	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/config"
	"github.com/cappelaere/wai-bee/internal/directory"
	"github.com/cappelaere/wai-bee/internal/review"
	"github.com/cappelaere/wai-bee/internal/session"
	"github.com/cappelaere/wai-bee/pkg/logger"
	"github.com/cappelaere/wai-bee/pkg/metrics"
	"github.com/cappelaere/wai-bee/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of wai-bee",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wai-bee version %s\n", version.Get())
	},
}

var rootCmd = &cobra.Command{
	Use:   "wai-bee",
	Short: "Scholarship application review server",
	Long:  `wai-bee serves scholarship application scores, statistics and reviewer workflows`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Flags().StringP("conf", "c", "wai-bee.yaml", "path to configuration file")
}

func run(cmd *cobra.Command, _ []string) {
	confName, _ := cmd.Flags().GetString("conf")

	cfg, cfgPath, err := config.LoadConfig(confName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting wai-bee",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	// Environment override for the tenant/user source path
	tenantConfig := cfg.TenantConfig
	if envPath := os.Getenv(cnst.EnvConfigPath); envPath != "" {
		tenantConfig = envPath
	}

	dir := directory.New(zapLogger, tenantConfig)
	if _, err := dir.Load(); err != nil {
		zapLogger.Fatal("failed to load tenant/user configuration",
			zap.String("path", tenantConfig),
			zap.Error(err))
	}

	store, err := session.NewStore(zapLogger, &cfg.Session)
	if err != nil {
		zapLogger.Fatal("failed to initialize session store", zap.Error(err))
	}

	authService := auth.NewService(zapLogger, dir, store)
	ledger := review.NewLedger(zapLogger, dir)
	m := metrics.New(cfg.Metrics)

	router := apiserver.NewRouter(zapLogger, dir, authService, ledger, m)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("failed to shutdown server", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
