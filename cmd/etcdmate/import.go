package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hollowtree/etcdmate/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-write keys from a YAML file",
	Long: `Import key-value pairs from a YAML file into the active profile's
cluster. Entries are written in file order; the import stops at the
first failure and reports how many entries were written.

File format:

  entries:
    - key: /app/config/host
      value: db.internal
    - key: /app/config/port
      value: "5432"`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringP("file", "f", "", "YAML file to import (required)")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}

type importFile struct {
	Entries []types.KeyValue `yaml:"entries"`
}

func runImport(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}

	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse YAML: %v", err)
	}
	if len(file.Entries) == 0 {
		return fmt.Errorf("no entries found in %s", filename)
	}
	for i, entry := range file.Entries {
		if entry.Key == "" {
			return fmt.Errorf("entry %d has an empty key", i)
		}
	}

	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	written, err := sess.BulkPut(context.Background(), file.Entries)
	if err != nil {
		return fmt.Errorf("import stopped after %d of %d entries: %w", written, len(file.Entries), err)
	}

	fmt.Printf("✓ Imported %d entries\n", written)
	return nil
}
