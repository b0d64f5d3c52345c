package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollowtree/etcdmate/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show visited paths for the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := historyProfile(cmd)
		if err != nil {
			return err
		}

		hist, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer hist.Close()

		paths, err := hist.Get(profile)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Printf("No history for profile %q\n", profile)
			return nil
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}

var historyAddCmd = &cobra.Command{
	Use:   "add PATH",
	Short: "Record a visited path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := historyProfile(cmd)
		if err != nil {
			return err
		}

		hist, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer hist.Close()

		if _, err := hist.Save(profile, args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Recorded %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the history for the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := historyProfile(cmd)
		if err != nil {
			return err
		}

		hist, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer hist.Close()

		if err := hist.Delete(profile); err != nil {
			return err
		}
		fmt.Printf("✓ History cleared for %s\n", profile)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyAddCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().String("profile", "", "Profile name (default: active profile)")
}

// historyProfile resolves which profile's history a command targets.
func historyProfile(cmd *cobra.Command) (string, error) {
	if name, _ := cmd.Flags().GetString("profile"); name != "" {
		return name, nil
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.CurrentProfile == "" {
		return "", fmt.Errorf("no active profile; pass --profile")
	}
	return cfg.CurrentProfile, nil
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	path, err := historyPath(cmd)
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}
