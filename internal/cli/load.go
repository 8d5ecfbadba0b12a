package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-stream/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Load and verify a database, then list its memories",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}

	RootCmd.AddCommand(cmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
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
	return printOut(entries, func() {
		for _, e := range entries {
			fmt.Printf("%d\t%.3f\t%.3f\t%s\n", e.ID, e.Recency, e.Importance, e.Description)
		}
	})
}
