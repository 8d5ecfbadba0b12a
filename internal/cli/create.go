package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a database from a seed file",
		Long: "Create the named database from a seed file with one memory per line " +
			"(default: <dir>/<name>_seed_memories.txt). Does nothing if the database exists.",
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}

	cmd.Flags().StringP("seed", "s", "", "Seed file path")
	cmd.Flags().String("now", "", "Creation time, ISO-8601 (default: current time)")

	RootCmd.AddCommand(cmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	seedPath, _ := cmd.Flags().GetString("seed")
	now, err := parseNow(cmd)
	if err != nil {
		return err
	}

	m, cleanup, err := openManager()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer cleanup()

	created, err := m.Create(cmd.Context(), args[0], seedPath, now)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	return printOut(map[string]any{"name": args[0], "created": created}, func() {
		if created {
			fmt.Printf("created %s\n", args[0])
		} else {
			fmt.Printf("%s already exists\n", args[0])
		}
	})
}
