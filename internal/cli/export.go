package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/memory-stream/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export memories in slot order",
		Long:  "Export the memories of a database as JSON or YAML (--format), to stdout or --out.",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	m, cleanup, err := openManager()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer cleanup()

	db, err := m.Load(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	entries := store.Export(db.Records)
	if out == "" {
		return printOut(entries, nil)
	}

	var b []byte
	if formatFlag == "yaml" || formatFlag == "yml" {
		b, err = yaml.Marshal(entries)
	} else {
		b, err = json.MarshalIndent(entries, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
