// Package main is the entry point for svcrunner.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"svcrunner/internal/config"
	"svcrunner/internal/events"
	"svcrunner/internal/logger"
	"svcrunner/internal/proc"
	"svcrunner/internal/service"
	"svcrunner/internal/supervisor"
	"svcrunner/internal/svcmgr"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const (
	defaultConfigFile  = "svcrunner.json"
	startupErrorLogDir = "logs"
)

// Identity flags. The root command doubles as the service entry point:
// the service control manager starts the executable with the arguments
// persisted at install time, so these must stay stable across versions.
var (
	flagName        string
	flagBat         string
	flagConfig      string
	flagDisplayName string
	flagDescription string
)

var rootCmd = &cobra.Command{
	Use:          "svcrunner",
	Short:        "Runs a batch script as a supervised Windows service",
	Long: `svcrunner registers itself as a Windows service and, when started by the
service control manager, runs the configured batch script as a child
process, translating service controls into child lifecycle actions.

Run without a subcommand it hosts the service (or, from a console, runs
the script interactively until Ctrl+C).`,
	SilenceUsage: true,
	RunE:         runService,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the service with the service control manager",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagName == "" || flagBat == "" {
			return errors.New("install requires --name and --bat")
		}
		err := svcmgr.Install(svcmgr.Config{
			Name:        flagName,
			DisplayName: flagDisplayName,
			Description: flagDescription,
			BatPath:     flagBat,
			ConfigPath:  flagConfig,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Service %q installed.\n", flagName)
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Delete the service registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagName == "" {
			return errors.New("uninstall requires --name")
		}
		if err := svcmgr.Uninstall(flagName); err != nil {
			return err
		}
		fmt.Printf("Service %q uninstalled.\n", flagName)
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the registered service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagName == "" {
			return errors.New("start requires --name")
		}
		if err := svcmgr.Start(flagName); err != nil {
			return err
		}
		fmt.Printf("Service %q started.\n", flagName)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the registered service and wait for it to reach stopped",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagName == "" {
			return errors.New("stop requires --name")
		}
		if err := svcmgr.Stop(flagName); err != nil {
			return err
		}
		fmt.Printf("Service %q stopped.\n", flagName)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of the registered service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagName == "" {
			return errors.New("status requires --name")
		}
		info, err := svcmgr.Status(flagName)
		if err != nil {
			return err
		}
		fmt.Printf("Service:    %s\n", info.Name)
		fmt.Printf("State:      %s\n", info.State)
		if info.PID != 0 {
			fmt.Printf("PID:        %d\n", info.PID)
		}
		if info.StartMode != "" {
			fmt.Printf("Start mode: %s\n", info.StartMode)
		}
		if info.Path != "" {
			fmt.Printf("Path:       %s\n", info.Path)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("svcrunner %s (built %s)\n", version, buildTime)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "", "Service name (example: MyService)")
	rootCmd.PersistentFlags().StringVar(&flagBat, "bat", "", `Path to the batch script to run (example: C:\scripts\run.bat)`)
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the JSON configuration file")

	installCmd.Flags().StringVar(&flagDisplayName, "display", "", "Display name shown in the services console (defaults to the service name)")
	installCmd.Flags().StringVar(&flagDescription, "description", "", "Description shown in the services console")

	rootCmd.AddCommand(installCmd, uninstallCmd, startCmd, stopCmd, statusCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runService hosts the supervised run. It is invoked by the service
// control manager with the persisted identity flags, or directly from a
// console for interactive runs.
func runService(cmd *cobra.Command, args []string) error {
	// A service process starts in System32; move next to the executable
	// so relative config and log paths resolve there.
	if exe, err := os.Executable(); err == nil {
		_ = os.Chdir(filepath.Dir(exe))
	}

	if service.IsService() {
		logger.SetServiceMode(true)
	}

	serviceName := flagName
	if serviceName == "" {
		serviceName = "svcrunner"
	}

	configPath := flagConfig
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		configPath = defaultConfigFile
		cfg, err = config.LoadOrDefault(configPath)
	}
	if err != nil {
		reportStartupFailure(serviceName, err)
		return err
	}

	// Flag identity wins over the config file.
	if flagName != "" {
		cfg.Service.Name = flagName
	}
	if flagBat != "" {
		cfg.Service.BatPath = flagBat
	}

	if cfg.Service.BatPath == "" {
		err := errors.New("no batch script configured: pass --bat or set Service.BatPath in the config file")
		reportStartupFailure(cfg.Service.Name, err)
		return err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		reportStartupFailure(cfg.Service.Name, err)
		return err
	}

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("name", cfg.Service.Name).
		Str("command", cfg.Service.BatPath).
		Str("config", configPath).
		Msg("Starting svcrunner")

	sink, err := events.NewSink(cfg.Events)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create event sink")
		return err
	}
	emitter := events.NewEmitter(sink, uuid.NewString(), cfg.Service.Name)
	defer func() {
		if err := emitter.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event sink")
		}
	}()

	sup := supervisor.New(cfg.Service, func() (supervisor.Child, error) {
		return proc.Start(cfg.Service.Name, cfg.Service.BatPath, cfg.Service.WorkDir)
	}, emitter)

	// Hot reload applies only to the Logging section; service identity
	// and run-loop timings are fixed for the lifetime of the run.
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		wlog := logger.WithComponent("main")
		if err := logger.Init(newCfg.Logging); err != nil {
			wlog.Error().Err(err).Msg("Failed to apply logging configuration")
			return
		}
		wlog.Info().Msg("Logging configuration updated")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher, hot reload disabled")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher")
	} else {
		defer func() {
			if err := watcher.Stop(); err != nil {
				log.Error().Err(err).Msg("Error stopping config watcher")
			}
		}()
	}

	if err := service.Run(cfg.Service.Name, sup); err != nil {
		log.Error().Err(err).Msg("Service exited with error")
		return err
	}

	log.Info().Msg("Service stopped")
	return nil
}

// reportStartupFailure surfaces pre-logger failures where an operator
// can find them: the Windows event log, a startup error file, and
// stderr.
func reportStartupFailure(name string, err error) {
	service.ReportStartupError(name, err)
	service.WriteStartupErrorFile(startupErrorLogDir, err)
	fmt.Fprintf(os.Stderr, "svcrunner: %v\n", err)
}
