package cli

import (
	"fmt"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE:    runList,
}

var listAll bool

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	urgentStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	importantStyle = lipgloss.NewStyle().Bold(true)
	doneStyle      = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	mutedStyle     = lipgloss.NewStyle().Faint(true)
)

func runList(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	// Urgency can drift while the app is closed.
	store.RecomputeUrgency()

	tasks := store.Pending()
	if listAll {
		tasks = store.Tasks()
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks. Add one with: potatolism add \"Your task\"")
		return store.Flush()
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Tasks (%d pending)", len(store.Pending()))))
	for _, t := range tasks {
		printTask(t)
	}
	return store.Flush()
}

func printTask(t model.Task) {
	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
	}

	shortID := t.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	name := t.Name
	switch {
	case t.Completed:
		name = doneStyle.Render(name)
	case t.Urgent:
		name = urgentStyle.Render(name)
	case t.Important:
		name = importantStyle.Render(name)
	}

	deadline := ""
	if t.Deadline != nil {
		deadline = time.UnixMilli(*t.Deadline).Format("Jan 2 15:04")
	}

	flags := ""
	if t.Urgent {
		flags += "!"
	}
	if t.Important {
		flags += "*"
	}

	fmt.Printf("  %s  %s  %-40s %3dm  %s %s\n",
		icon, mutedStyle.Render(shortID), name, t.EstimatedTime,
		mutedStyle.Render(deadline), flags)
}
