package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reforma/config"
	"reforma/internal/logging"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	verbose   bool
	logFormat string
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "reforma",
	Short: "Reforma tributária - simulate the tax reform impact and ingest the knowledge base",
	Long: `reforma estimates how Brazil's consumption-tax reform (CBS, IBS and the
selective tax) changes a business's tax burden, and prepares the knowledge base
documents that ground the assistant.

Example usage:
  reforma simulate --sector servicos --regime lucro_presumido --bracket 360k_4.8m
  reforma ingest content --dry-run         # Validate and chunk without writing
  reforma serve                            # Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.LoadEnv(rootDir); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Logging.Level
		logCfg.Format = cfg.Logging.Format
		if logFormat != "" {
			logCfg.Format = logFormat
		}
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.New(logCfg)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./reforma.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
