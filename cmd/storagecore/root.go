// Package main implements the storagecore CLI: a spf13/cobra command tree
// wrapping internal/facade for local operation. Configuration follows a
// config-file-plus-flags convention (internal/config, built on spf13/viper);
// the subcommand grouping (serve / bucket / object / multipart / audit)
// mirrors the façade's public operations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/objectvault/storagecore/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "storagecore",
	Short: "storagecore operates an S3-compatible object storage core",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded
		logger = newLogger(cfg.LogLevel)
		return nil
	},
}

func newLogger(level string) *zap.SugaredLogger {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	l, err := zapCfg.Build()
	if err != nil {
		l, _ = zap.NewProduction()
	}
	return l.Sugar()
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a storagecore config file")
	viper.SetEnvPrefix("STORAGECORE")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
