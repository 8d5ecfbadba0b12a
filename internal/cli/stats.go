package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats <name>",
		Short: "Show database statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	return printOut(m.Stats(db), nil)
}
