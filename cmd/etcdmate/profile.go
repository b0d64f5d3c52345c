package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/session"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage connection profiles",
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileLockCmd)
	profileCmd.AddCommand(profileUnlockCmd)
	profileCmd.AddCommand(profileTestCmd)
	rootCmd.AddCommand(profileCmd)

	profileAddCmd.Flags().StringSlice("endpoint", nil, "Endpoint as host:port (repeatable)")
	profileAddCmd.Flags().String("user", "", "Username for authenticated clusters")
	profileAddCmd.Flags().String("password", "", "Password for authenticated clusters")
	profileAddCmd.Flags().Int64("timeout-ms", 0, "Per-request timeout in milliseconds")
	profileAddCmd.Flags().Int64("connect-timeout-ms", 0, "Dial timeout in milliseconds")
	profileAddCmd.Flags().Bool("locked", false, "Forbid mutating operations on this profile")
	profileAddCmd.Flags().Bool("use", false, "Make this the active profile")
	_ = profileAddCmd.MarkFlagRequired("endpoint")
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if len(cfg.Profiles) == 0 {
			fmt.Println("No profiles configured. Add one with 'etcdmate profile add'.")
			return nil
		}

		for _, p := range cfg.Profiles {
			marker := " "
			if p.Name == cfg.CurrentProfile {
				marker = "*"
			}
			flags := ""
			if p.Locked {
				flags += " [locked]"
			}
			if p.User != nil {
				flags += " [auth]"
			}
			fmt.Printf("%s %s%s\n", marker, p.Name, flags)
			for _, ep := range p.Endpoints {
				fmt.Printf("    %s\n", ep.Addr())
			}
		}
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		if cfg.ProfileByName(name) == nil {
			return fmt.Errorf("unknown profile %q", name)
		}
		cfg.CurrentProfile = name
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("✓ Active profile: %s\n", name)
		return nil
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a connection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		if cfg.ProfileByName(name) != nil {
			return fmt.Errorf("profile %q already exists", name)
		}

		endpointArgs, _ := cmd.Flags().GetStringSlice("endpoint")
		endpoints := make([]config.Endpoint, 0, len(endpointArgs))
		for _, arg := range endpointArgs {
			ep, err := parseEndpoint(arg)
			if err != nil {
				return err
			}
			endpoints = append(endpoints, ep)
		}

		profile := config.Profile{Name: name, Endpoints: endpoints}

		if user, _ := cmd.Flags().GetString("user"); user != "" {
			password, _ := cmd.Flags().GetString("password")
			profile.User = &config.Credential{Username: user, Password: password}
		}
		if ms, _ := cmd.Flags().GetInt64("timeout-ms"); ms > 0 {
			profile.TimeoutMS = &ms
		}
		if ms, _ := cmd.Flags().GetInt64("connect-timeout-ms"); ms > 0 {
			profile.ConnectTimeoutMS = &ms
		}
		profile.Locked, _ = cmd.Flags().GetBool("locked")

		cfg.Profiles = append(cfg.Profiles, profile)
		if use, _ := cmd.Flags().GetBool("use"); use || cfg.CurrentProfile == "" {
			cfg.CurrentProfile = name
		}

		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("✓ Profile added: %s\n", name)
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a connection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		kept := cfg.Profiles[:0]
		found := false
		for _, p := range cfg.Profiles {
			if p.Name == name {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return fmt.Errorf("unknown profile %q", name)
		}
		cfg.Profiles = kept
		if cfg.CurrentProfile == name {
			cfg.CurrentProfile = ""
		}

		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("✓ Profile removed: %s\n", name)
		return nil
	},
}

var profileLockCmd = &cobra.Command{
	Use:   "lock NAME",
	Short: "Forbid writes through a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setLocked(cmd, args[0], true) },
}

var profileUnlockCmd = &cobra.Command{
	Use:   "unlock NAME",
	Short: "Allow writes through a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setLocked(cmd, args[0], false) },
}

var profileTestCmd = &cobra.Command{
	Use:   "test NAME",
	Short: "Dial a profile and report the server version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		profile := cfg.ProfileByName(args[0])
		if profile == nil {
			return fmt.Errorf("unknown profile %q", args[0])
		}
		if len(profile.Endpoints) == 0 {
			return fmt.Errorf("profile %q has no endpoints", args[0])
		}

		sess := session.New(cfg)
		defer sess.Close()

		version, err := sess.TestConnection(context.Background(), profile)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Connected to %s (etcd %s)\n", profile.Endpoints[0].Addr(), version)
		return nil
	},
}

func setLocked(cmd *cobra.Command, name string, locked bool) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	profile := cfg.ProfileByName(name)
	if profile == nil {
		return fmt.Errorf("unknown profile %q", name)
	}
	profile.Locked = locked

	if err := cfg.Save(path); err != nil {
		return err
	}
	if locked {
		fmt.Printf("✓ Profile locked: %s\n", name)
	} else {
		fmt.Printf("✓ Profile unlocked: %s\n", name)
	}
	return nil
}

func parseEndpoint(s string) (config.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return config.Endpoint{}, fmt.Errorf("invalid endpoint %q: expected host:port", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return config.Endpoint{}, fmt.Errorf("invalid endpoint port in %q", s)
	}
	return config.Endpoint{Host: host, Port: port}, nil
}
