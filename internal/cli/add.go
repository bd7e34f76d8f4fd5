package cli

import (
	"fmt"
	"strings"

	"github.com/bainianlaoyao/potatolism/internal/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new task",
	Long: `Add a new task. The pomodoro schedule is generated from the
estimated time and cycle mode.

Examples:
  potatolism add "Write report" --time 60
  potatolism add "Deep work" --time 120 --long
  potatolism add "Ship release" --deadline "2026-09-01 18:00" --important`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addTime        int
	addDeadline    string
	addLongCycle   bool
	addImportant   bool
	addDescription string
	addInfinite    bool
)

func init() {
	addCmd.Flags().IntVarP(&addTime, "time", "t", 25, "Estimated time in minutes")
	addCmd.Flags().StringVarP(&addDeadline, "deadline", "d", "", "Deadline (2006-01-02, '2006-01-02 15:04', or a duration like 24h)")
	addCmd.Flags().BoolVarP(&addLongCycle, "long", "l", false, "Use long cycles (50m focus / 10m rest)")
	addCmd.Flags().BoolVarP(&addImportant, "important", "i", false, "Mark as important")
	addCmd.Flags().StringVar(&addDescription, "desc", "", "Description")
	addCmd.Flags().BoolVar(&addInfinite, "infinite", false, "Add an open-ended focus task instead")
}

func runAdd(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	if addInfinite {
		task := store.AddInfinite()
		if err := store.Flush(); err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		fmt.Printf("✓ Added open-ended task %q\n", task.Name)
		return nil
	}

	draft := model.Draft{
		Name:          strings.Join(args, " "),
		EstimatedTime: addTime,
		LongCycle:     addLongCycle,
		Important:     addImportant,
		Description:   addDescription,
	}
	if addDeadline != "" {
		millis, err := parseDeadline(addDeadline)
		if err != nil {
			return err
		}
		draft.Deadline = &millis
	}

	task := store.Add(draft)
	if err := store.Flush(); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	focusSegments := 0
	for _, item := range task.CycleList {
		if item.Phase == model.PhaseFocus {
			focusSegments++
		}
	}
	fmt.Printf("✓ Added %q (%dm, %d focus segments)\n", task.Name, task.EstimatedTime, focusSegments)
	if task.Urgent {
		fmt.Println("  deadline is under 24h away, marked urgent")
	}
	return nil
}
