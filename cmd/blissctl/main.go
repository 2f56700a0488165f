// Package main is the CLI entry point for blissctl.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/blissctl/internal/config"
	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
	"github.com/eliteGoblin/focusd/blissctl/internal/infra"
	"github.com/eliteGoblin/focusd/blissctl/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blissctl",
	Short: "Control the bliss focus engine",
	Long: `blissctl drives the bliss engine: it shows session status, edits the
website, app and browser block lists, starts focus sessions and ends
them early only after a typing challenge.

Block lists are locked while a session is running.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDashboard,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.blissctl/config.yaml)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(panicCmd)
	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(websiteCmd)
	rootCmd.AddCommand(appCmd)
	rootCmd.AddCommand(browserCmd)
	rootCmd.AddCommand(quotesCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds everything a command needs.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	engine     *infra.ExecEngineClient
	controller *usecase.Controller
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := createLogger(cfg.Log)
	engine := infra.NewExecEngineClient(cfg.EnginePaths(), logger.Named("engine"))
	controller := usecase.NewController(
		usecase.ControllerConfig{OverrideCommand: cfg.Engine.OverrideCommand},
		engine,
		logger.Named("controller"),
	)
	return &app{cfg: cfg, logger: logger, engine: engine, controller: controller}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// openAudit opens the encrypted audit log; callers treat failure as
// "no audit" rather than aborting.
func (a *app) openAudit() (*infra.EncryptedAuditLog, error) {
	provider := infra.NewFileKeyProvider(a.cfg.DataDir)
	return infra.OpenAuditLogWithKeyProvider(a.cfg.DataDir, provider)
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func createLogger(cfg config.LogConfig) *zap.Logger {
	config := zap.NewProductionConfig()
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err == nil {
			config.OutputPaths = []string{cfg.Path}
			config.ErrorOutputPaths = []string{cfg.Path}
		}
	}
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		config.Level = level
	}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

// report prints a failure the way the dashboard would show it.
func report(err error) error {
	if err == nil {
		return nil
	}
	var ce *domain.ClassifiedError
	if errors.As(err, &ce) && ce.Visible() {
		fmt.Fprintln(os.Stderr, ce.Message)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("blissctl %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
