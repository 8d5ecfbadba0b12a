package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-stream/internal/seed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <name> [text...]",
		Short: "Append memories to a database",
		Long:  "Append each argument, and each line of --file, as a new memory.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUpdate,
	}

	cmd.Flags().String("file", "", "Read additional memories from a file, one per line")
	cmd.Flags().String("now", "", "Insertion time, ISO-8601 (default: current time)")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	now, err := parseNow(cmd)
	if err != nil {
		return err
	}

	texts := args[1:]
	if file != "" {
		lines, err := seed.ReadLines(file)
		if err != nil {
			return fmt.Errorf("read --file: %w", err)
		}
		texts = append(texts, lines...)
	}
	if len(texts) == 0 {
		return cmd.Usage()
	}

	m, cleanup, err := openManager()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer cleanup()

	db, err := m.Load(args[0])
	if err != nil {
		return err
	}
	before := len(db.Records)

	// Update takes ownership of the loaded index.
	if err := m.Update(cmd.Context(), args[0], texts, now, db.Index); err != nil {
		return err
	}

	after, err := m.Load(args[0])
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	defer after.Close()

	return printOut(map[string]any{"name": args[0], "added": len(after.Records) - before, "memories": len(after.Records)}, nil)
}
