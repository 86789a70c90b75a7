package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kalambet/appsettings/internal/config"
	"github.com/kalambet/appsettings/internal/settings"
)

var version = "dev"

var (
	configPath string
	noColor    bool

	registry *settings.Registry
)

var rootCmd = &cobra.Command{
	Use:           "appsettings",
	Short:         "Inspect and edit persisted application settings",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		// config commands must work even when the file fails validation.
		if cmd.Parent() == configCmd {
			return nil
		}
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := run(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

func run() error {
	defer closeRegistry()
	return rootCmd.Execute()
}

// setup loads the config, installs the process logger and prepares the
// registry. The store itself is opened on first use.
func setup() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	closeRegistry()
	registry = settings.NewRegistry(func() (*settings.Store, error) {
		return settings.Open(cfg, logger)
	})
	return nil
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	return config.LoadFile(configPath)
}

// configFile is the file `config set` writes to.
func configFile() string {
	if configPath == "" {
		return config.DefaultPath()
	}
	return configPath
}

func closeRegistry() {
	if registry == nil {
		return
	}
	if err := registry.Close(); err != nil {
		slog.Warn("closing settings store", "error", err)
	}
	registry = nil
}

func openStore() (*settings.Store, error) {
	if registry == nil {
		return nil, fmt.Errorf("settings registry not initialized")
	}
	return registry.Store()
}

func openFacade() (*settings.Facade, error) {
	if registry == nil {
		return nil, fmt.Errorf("settings registry not initialized")
	}
	return registry.Facade()
}
