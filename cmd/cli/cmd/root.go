package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classmeta/internal/formatter"
	"github.com/classmeta/internal/service"
	"github.com/classmeta/pkg/config"
	"github.com/classmeta/pkg/pprof"
	"github.com/classmeta/pkg/telemetry"
	"github.com/classmeta/pkg/utils"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string

	logger     utils.Logger
	appConfig  *config.Config
	formatters = formatter.NewRegistry()

	shutdownTelemetry telemetry.ShutdownFunc

	// Pprof flags
	pprofEnabled  bool
	pprofMode     string
	pprofDir      string
	pprofProfiles string
	pprofAddr     string

	// Pprof collector
	pprofCollector *pprof.Collector
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "classmeta",
	Short: "Inspect and index JVM class files",
	Long: `classmeta reads JVM class files from directories, jar/zip archives and
object storage, and extracts their structural metadata: names, supertypes,
access flags, fields and methods.

Loaded classes can be summarized, explored as a type hierarchy, indexed
into a SQL database for later queries, or watched for changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg

		if logger, err = newLogger(cmd, cfg); err != nil {
			return err
		}

		if _, err := formatters.Get(outputFormat); err != nil {
			return err
		}

		shutdownTelemetry, err = telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Failed to initialize telemetry: %v", err)
		}

		if pprofEnabled {
			cfg, err := buildPprofConfig()
			if err != nil {
				return err
			}
			collector, err := pprof.NewCollector(cfg)
			if err != nil {
				return err
			}
			if err := collector.Start(); err != nil {
				return err
			}
			pprofCollector = collector
			if cfg.Mode == pprof.ModeHTTP {
				logger.Info("pprof endpoints at http://%s/debug/pprof/", collector.Addr())
			} else {
				logger.Info("pprof collection started (dir: %s)", cfg.OutputDir)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pprofCollector != nil {
			if err := pprofCollector.Stop(); err != nil {
				logger.Warn("Failed to stop pprof collector: %v", err)
			}
			for _, f := range pprofCollector.Files() {
				logger.Info("pprof data saved to: %s", f)
			}
			pprofCollector = nil
		}

		if shutdownTelemetry == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("Failed to flush telemetry: %v", err)
		}
		shutdownTelemetry = nil
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./classmeta.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	// Pprof flags
	rootCmd.PersistentFlags().BoolVar(&pprofEnabled, "pprof", false, "Profile this run")
	rootCmd.PersistentFlags().StringVar(&pprofMode, "pprof-mode", "file", "Pprof mode: file (profiles written on exit) or http (on-demand)")
	rootCmd.PersistentFlags().StringVar(&pprofDir, "pprof-dir", "./pprof", "Output directory for pprof data")
	rootCmd.PersistentFlags().StringVar(&pprofProfiles, "pprof-profiles", "cpu,heap", "Comma-separated profile types: cpu,heap,goroutine,allocs")
	rootCmd.PersistentFlags().StringVar(&pprofAddr, "pprof-addr", "localhost:6060", "HTTP listen address for http mode")

	binName := BinName()
	rootCmd.Example = `  # Show one class file
  ` + binName + ` inspect ./build/classes/com/acme/Order.class

  # Summarize a jar, keeping only application classes
  ` + binName + ` scan ./app.jar --skip-jdk

  # Index a jar and query it
  ` + binName + ` index ./app.jar
  ` + binName + ` query implementors com.acme.Repository

  # Keep a class directory in sync
  ` + binName + ` watch ./build/classes

  # Profile a large scan
  ` + binName + ` scan ./big.war --nested --pprof --pprof-profiles cpu,heap`
}

// newLogger logs to stderr unless the config names a file.
func newLogger(cmd *cobra.Command, cfg *config.Config) (utils.Logger, error) {
	level := utils.ParseLogLevel(cfg.Log.Level)
	if verbose {
		level = utils.LevelDebug
	}
	if cfg.Log.OutputPath != "" {
		return utils.NewFileLogger(level, cfg.Log.OutputPath)
	}
	return utils.NewDefaultLogger(level, cmd.ErrOrStderr()), nil
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	if logger == nil {
		return &utils.NullLogger{}
	}
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// buildPprofConfig builds pprof configuration from command line flags.
func buildPprofConfig() (*pprof.Config, error) {
	profiles, err := pprof.ParseProfileTypes(pprofProfiles)
	if err != nil {
		return nil, err
	}
	cfg := &pprof.Config{
		Mode:      pprof.ModeType(pprofMode),
		OutputDir: pprofDir,
		Profiles:  profiles,
		Addr:      pprofAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newService() (*service.Service, error) {
	cfg := appConfig
	if cfg == nil {
		cfg = config.Default()
	}
	return service.New(cfg, GetLogger())
}

// render writes v to the command output in the selected format.
func render(cmd *cobra.Command, v any) error {
	f, err := formatters.Get(outputFormat)
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), v)
}
