package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(statusCmd)
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List cluster members",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		members, err := sess.Members(context.Background())
		if err != nil {
			return err
		}

		for _, m := range members {
			role := ""
			if m.IsLearner {
				role = " (learner)"
			}
			fmt.Printf("%s  %s%s\n", m.ID, m.Name, role)
			fmt.Printf("  peer:   %s\n", strings.Join(m.PeerURLs, ", "))
			fmt.Printf("  client: %s\n", strings.Join(m.ClientURLs, ", "))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show endpoint status for the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		st, err := sess.Status(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Endpoint:   %s\n", st.Endpoint)
		fmt.Printf("Version:    %s\n", st.Version)
		fmt.Printf("DB Size:    %d bytes\n", st.DBSize)
		fmt.Printf("Leader:     %s\n", st.Leader)
		fmt.Printf("Raft Index: %d\n", st.RaftIndex)
		fmt.Printf("Raft Term:  %d\n", st.RaftTerm)
		return nil
	},
}
