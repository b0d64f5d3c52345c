package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hollowtree/etcdmate/pkg/types"
)

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(rangeCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(delCmd)
	rootCmd.AddCommand(atRevisionCmd)

	getCmd.Flags().Bool("values", true, "Print values alongside keys")
}

var getCmd = &cobra.Command{
	Use:   "get PREFIX",
	Short: "List key-value pairs under a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		items, err := sess.ListByPrefix(context.Background(), args[0])
		if err != nil {
			return err
		}

		showValues, _ := cmd.Flags().GetBool("values")
		for _, item := range items {
			printItem(item, showValues)
		}
		fmt.Printf("\n%d keys\n", len(items))
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys PREFIX",
	Short: "List key names under a prefix (no values)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		keys, err := sess.ListKeys(context.Background(), args[0])
		if err != nil {
			return err
		}

		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range START END",
	Short: "List key-value pairs in an inclusive key range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		items, err := sess.GetRange(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}

		for _, item := range items {
			printItem(item, true)
		}
		fmt.Printf("\n%d keys\n", len(items))
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put KEY VALUE",
	Short: "Write a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Put(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Put %s\n", args[0])
		return nil
	},
}

var delCmd = &cobra.Command{
	Use:   "del KEY",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %s\n", args[0])
		return nil
	},
}

var atRevisionCmd = &cobra.Command{
	Use:   "at-revision KEY REVISION",
	Short: "Read a key as of a past store revision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		revision, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid revision %q: %v", args[1], err)
		}

		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		item, err := sess.GetAtRevision(context.Background(), args[0], revision)
		if err != nil {
			return err
		}
		if item == nil {
			fmt.Printf("%s had no value at revision %d\n", args[0], revision)
			return nil
		}
		printItem(*item, true)
		return nil
	},
}

func printItem(item types.Item, showValue bool) {
	if showValue {
		fmt.Printf("%s = %s  (ver=%d mod=%d)\n", item.Key, item.Value, item.Version, item.ModRevision)
	} else {
		fmt.Println(item.Key)
	}
}
