package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/equipment-visualizer/backend/internal/config"
	"github.com/equipment-visualizer/backend/internal/report"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Chemical equipment CSV upload and report service",
	Long: `Accepts equipment parameter CSV files, keeps a short per-owner history
of summarized datasets and renders PDF reports with charts.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.Version = Version
}

// defaultConfigPath resolves config.yaml in the executable's directory
func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), "config.yaml"), nil
}

// loadConfig reads the server configuration, creating it on first run
func loadConfig() (*config.AppConfig, string, error) {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return nil, "", err
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Advanced.LogLevel = logLevel
	}
	return cfg, path, nil
}

// offlineConfig is the configuration for commands that never touch
// storage. It reads --config when given and never writes a file.
func offlineConfig() (*config.AppConfig, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	if _, err := os.Stat(cfgFile); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, _, err := loadConfig()
	return cfg, err
}

func newRenderer(cfg *config.AppConfig) *report.Renderer {
	return report.NewRenderer(report.Options{
		Title:       cfg.Report.Title,
		PageSize:    cfg.Report.PageSize,
		ChartWidth:  cfg.Report.ChartWidth,
		ChartHeight: cfg.Report.ChartHeight,
	})
}
