package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollowtree/etcdmate/pkg/api"
	"github.com/hollowtree/etcdmate/pkg/history"
	"github.com/hollowtree/etcdmate/pkg/log"
	"github.com/hollowtree/etcdmate/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local API backend",
	Long: `Serve the etcdmate HTTP/JSON API for a desktop frontend.

The server binds to loopback by default; it is a local backend, not a
network service.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:7380", "Listen address")
	serveCmd.Flags().Bool("json-logs", false, "Log JSON instead of console format")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	if jsonLogs, _ := cmd.Flags().GetBool("json-logs"); jsonLogs {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		log.Init(log.Config{Level: level, JSONOutput: true})
	}

	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	histPath, err := historyPath(cmd)
	if err != nil {
		return err
	}
	// A broken history db disables the history endpoints but does not
	// stop the server.
	hist, err := history.Open(histPath)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("history disabled")
		hist = nil
	} else {
		defer hist.Close()
	}

	sess := session.New(cfg)
	defer sess.Close()

	server := api.NewServer(sess, hist, cfgPath)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	fmt.Printf("etcdmate API listening on %s. Press Ctrl+C to stop.\n", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}
