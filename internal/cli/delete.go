package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bainianlaoyao/potatolism/internal/config"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task from the local replica",
	Long: `Delete a task locally. Deletion writes no tombstone: if the sync
server still holds the task, the next sync brings it back.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	task, err := resolveTask(store, args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if cfg.ConfirmDelete && !deleteForce {
		fmt.Printf("Delete %q? [y/N] ", task.Name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if !store.Remove(task.ID) {
		return fmt.Errorf("task %s disappeared", task.ID)
	}
	if err := store.Flush(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	fmt.Printf("✗ Deleted %q\n", task.Name)
	return nil
}
