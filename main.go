package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tapkey/config"
	"tapkey/keyboard"
	"tapkey/log"
)

var version = "dev"

// Flags shared by every command.
var (
	configFlag  string
	logPathFlag string
	backendFlag string
	verboseFlag bool
)

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "tapkey",
		Short:             "Turn taps on one key into media controls",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
		RunE:              runDaemon,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "settings file (default: $"+config.EnvPath+" or the user config dir)")
	pf.StringVar(&logPathFlag, "logpath", "", "log directory (default: $"+log.EnvPath+" or the OS log dir)")
	pf.StringVar(&backendFlag, "backend", "", "keyboard backend, overrides the settings file")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "log every tap")

	rootCmd.Flags().BoolVar(&trayFlag, "tray", true, "show a status icon")

	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newScriptCmd())
	rootCmd.AddCommand(newBackendsCmd())
	rootCmd.AddCommand(newConfigPathCmd())
	return rootCmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	dir, err := log.ResolveDir(logPathFlag)
	if err != nil {
		return fmt.Errorf("resolve log directory: %w", err)
	}
	log.SetDir(dir)

	// crash output first, before any cgo backend is touched
	if err := log.InitCrashOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not set up crash log: %v\n", err)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.SetVerbose(verboseFlag)
	return nil
}

// loadSettings loads or creates the settings file and applies --backend.
func loadSettings(cmd *cobra.Command) (*config.Settings, string, error) {
	path, err := config.Path(configFlag)
	if err != nil {
		return nil, "", err
	}
	s, status, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, path, err
	}
	switch status {
	case config.StatusCreated:
		log.Info("created default settings at " + path)
	case config.StatusRecovered:
		log.Warnf("settings at %s were unreadable; saved a copy to %s.bak and restored defaults", path, path)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: settings file was invalid, restored defaults (backup: %s.bak)\n", path)
	}
	applyBackendFlag(s)
	return s, path, nil
}

func applyBackendFlag(s *config.Settings) {
	if backendFlag != "" {
		s.Backend = backendFlag
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the keyboard backends built into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, name := range keyboard.Backends() {
				suffix := ""
				if i == 0 {
					suffix = " (auto)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, suffix)
			}
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Path(configFlag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
