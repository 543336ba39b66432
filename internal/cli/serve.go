package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/pipeline"
	"github.com/scdesign/factcheck/internal/server"
	"github.com/scdesign/factcheck/internal/task"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact-checking HTTP service",
	Long: `Start the HTTP service: media upload and URL submission, background
task tracking for video, text fact-checking, and a capability endpoint.

Example:
  factcheck serve
  factcheck serve --addr :9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := model.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := os.MkdirAll(cfg.Acquire.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	store := task.NewMemoryStore(cfg.Tasks.Retention)
	tracker := task.NewTracker(store)

	sweeper, err := task.StartSweeper(store, cfg.Acquire.UploadDir, cfg.Acquire.FileMaxAge, cfg.Tasks.SweepSchedule)
	if err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()

	srv := server.New(cfg, pipeline.New(cfg, tracker), tracker)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
