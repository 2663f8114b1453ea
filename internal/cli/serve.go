package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/fnol/internal/pipeline"
	"github.com/ppiankov/fnol/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the FNOL processing HTTP API",
	Long: `Serve exposes the claim processing endpoints:

  POST /api/v1/process        multipart upload, field "file" (.pdf or .txt)
  POST /api/v1/process/text   JSON body {"content": "..."}
  GET  /health                liveness check
  GET  /metrics               Prometheus metrics

Example:
  fnol serve
  fnol serve --port 9000 --threshold 10000
  FNOL_LOG_FORMAT=console fnol serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "bind address")
	serveCmd.Flags().Int("port", 8000, "listen port")
	serveCmd.Flags().Float64("threshold", 25000, "fast-track damage threshold")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("routing.fast_track_threshold", serveCmd.Flags().Lookup("threshold"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting fnol",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Float64("fast_track_threshold", cfg.Routing.FastTrackThreshold),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	p := pipeline.NewPipeline(cfg, logger)
	if err := server.New(cfg, p, logger).Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
