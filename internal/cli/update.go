package cli

import (
	"fmt"

	"github.com/bainianlaoyao/potatolism/internal/taskstore"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a task's fields",
	Long: `Update selected fields of a task. Changing the estimated time or
cycle mode regenerates the pomodoro schedule; changing the deadline
re-evaluates urgency.

Examples:
  potatolism update a1b2c3 --name "New name"
  potatolism update a1b2c3 --time 90 --long
  potatolism update a1b2c3 --deadline 12h
  potatolism update a1b2c3 --clear-deadline`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var (
	updateName          string
	updateTime          int
	updateDeadline      string
	updateClearDeadline bool
	updateLong          bool
	updateImportant     bool
	updateDescription   string
	updateProgress      float64
)

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "New name")
	updateCmd.Flags().IntVarP(&updateTime, "time", "t", 0, "Estimated time in minutes")
	updateCmd.Flags().StringVarP(&updateDeadline, "deadline", "d", "", "New deadline")
	updateCmd.Flags().BoolVar(&updateClearDeadline, "clear-deadline", false, "Remove the deadline")
	updateCmd.Flags().BoolVarP(&updateLong, "long", "l", false, "Use long cycles")
	updateCmd.Flags().BoolVarP(&updateImportant, "important", "i", false, "Mark as important")
	updateCmd.Flags().StringVar(&updateDescription, "desc", "", "Description")
	updateCmd.Flags().Float64Var(&updateProgress, "progress", 0, "Progress")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	task, err := resolveTask(store, args[0])
	if err != nil {
		return err
	}

	// Only flags the user actually set become part of the patch.
	var patch taskstore.Patch
	if cmd.Flags().Changed("name") {
		patch.Name = &updateName
	}
	if cmd.Flags().Changed("time") {
		patch.EstimatedTime = &updateTime
	}
	if cmd.Flags().Changed("long") {
		patch.LongCycle = &updateLong
	}
	if cmd.Flags().Changed("important") {
		patch.Important = &updateImportant
	}
	if cmd.Flags().Changed("desc") {
		patch.Description = &updateDescription
	}
	if cmd.Flags().Changed("progress") {
		patch.Progress = &updateProgress
	}
	if updateClearDeadline {
		patch.TouchDeadline = true
		patch.Deadline = nil
	} else if cmd.Flags().Changed("deadline") {
		millis, err := parseDeadline(updateDeadline)
		if err != nil {
			return err
		}
		patch.TouchDeadline = true
		patch.Deadline = &millis
	}

	updated, err := store.Update(task.ID, patch)
	if err != nil {
		return err
	}
	if err := store.Flush(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	fmt.Printf("✓ Updated %q\n", updated.Name)
	return nil
}
