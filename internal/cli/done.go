package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Toggle a task's completed state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

func runDone(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	task, err := resolveTask(store, args[0])
	if err != nil {
		return err
	}

	toggled, err := store.ToggleCompleted(task.ID)
	if err != nil {
		return err
	}
	if err := store.Flush(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	if toggled.Completed {
		fmt.Printf("✓ Completed %q\n", toggled.Name)
	} else {
		fmt.Printf("↺ Reopened %q\n", toggled.Name)
	}
	return nil
}
