package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/log"
	"github.com/hollowtree/etcdmate/pkg/session"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "etcdmate",
	Short: "etcdmate - desktop-grade etcd client",
	Long: `etcdmate browses and edits etcd key-value data through named
connection profiles. A profile carries endpoints, credentials, and
timeouts; switching profiles swaps the live connection transparently.

Run it as a one-shot CLI, or as a local API backend with 'etcdmate serve'.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		log.Init(log.Config{Level: level})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"etcdmate version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Config file path (default: user config dir)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

// configPath resolves the --config flag, falling back to the per-user
// default location.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// loadConfig reads the configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newSession builds a session over the loaded configuration. The caller
// owns the session and should Close it when done.
func newSession(cmd *cobra.Command) (*session.Session, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return session.New(cfg), nil
}

// historyPath is where the per-profile path history database lives,
// next to the config file.
func historyPath(cmd *cobra.Command) (string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), "history.db"), nil
}
