package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/jarvis/internal/config"
	"github.com/dohr-michael/jarvis/internal/tasks"
	"github.com/dohr-michael/jarvis/internal/tracker"
)

// NewTasksCommand returns the tasks subcommand.
func NewTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Manage tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tasks sorted by due date",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "today",
						Usage: "Only tasks due today",
					},
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Include completed tasks",
					},
				},
				Action: runTasksList,
			},
			{
				Name:      "add",
				Usage:     "Add a task",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "due",
						Aliases: []string{"d"},
						Usage:   "Due date (YYYY-MM-DD), defaults to today",
					},
					&cli.StringFlag{
						Name:    "label",
						Aliases: []string{"l"},
						Usage:   "Label (Work, Personal, Urgent)",
					},
				},
				Action: runTasksAdd,
			},
			{
				Name:      "done",
				Usage:     "Mark a task complete",
				ArgsUsage: "<task_id>",
				Action:    runTasksToggle,
			},
			{
				Name:      "undone",
				Usage:     "Mark a task incomplete",
				ArgsUsage: "<task_id>",
				Action:    runTasksToggle,
			},
			{
				Name:      "rm",
				Usage:     "Delete a task",
				ArgsUsage: "<task_id>",
				Action:    runTasksRemove,
			},
			{
				Name:      "show",
				Usage:     "Show a single task",
				ArgsUsage: "<task_id>",
				Action:    runTasksShow,
			},
		},
		DefaultCommand: "list",
	}
}

// openTracker builds a tracker without an event bus or extractor, CLI
// task commands run against the store directly.
func openTracker(ctx context.Context, cmd *cli.Command) (*tracker.Tracker, tasks.Store, error) {
	cfg := loadConfig(cmd)
	return buildCLITracker(ctx, cfg)
}

func runTasksList(ctx context.Context, cmd *cli.Command) error {
	tr, store, err := openTracker(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := tracker.ViewOptions{
		TodayOnly:     cmd.Bool("today"),
		ShowCompleted: cmd.Bool("all"),
	}
	list := tr.View(opts, time.Now())

	if len(list) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tLABEL\tSTATUS\tTITLE")
	for _, t := range list {
		status := " "
		if t.Complete {
			status = "done"
		}
		label := t.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.DueDate.Format("2006-01-02"),
			label,
			status,
			t.Title,
		)
	}
	return w.Flush()
}

func runTasksAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if title == "" {
		return fmt.Errorf("usage: jarvis tasks add <title>")
	}

	due := time.Now()
	if cmd.IsSet("due") {
		day, err := time.ParseInLocation("2006-01-02", cmd.String("due"), time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q", cmd.String("due"))
		}
		due = day
	}
	due = time.Date(due.Year(), due.Month(), due.Day(), 12, 0, 0, 0, time.Local)

	label := cmd.String("label")
	if label != "" && !tasks.KnownLabel(label) {
		return fmt.Errorf("unknown label %q", label)
	}

	tr, store, err := openTracker(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	task, err := tr.Add(ctx, title, due, label)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	fmt.Printf("Created %s: %s (due %s)\n", task.ID, task.Title, task.DueDate.Format("2006-01-02"))
	return nil
}

func runTasksToggle(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: jarvis tasks %s <task_id>", cmd.Name)
	}

	tr, store, err := openTracker(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	task, ok := tr.Get(id)
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}

	wantComplete := cmd.Name == "done"
	if task.Complete == wantComplete {
		fmt.Printf("%s is already %s\n", id, cmd.Name)
		return nil
	}

	task, err = tr.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return fmt.Errorf("task %s not found", id)
		}
		return err
	}
	fmt.Printf("%s: %s\n", cmd.Name, task.Title)
	return nil
}

func runTasksRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: jarvis tasks rm <task_id>")
	}

	tr, store, err := openTracker(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := tr.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove task: %w", err)
	}
	fmt.Printf("Removed %s\n", id)
	return nil
}

func runTasksShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: jarvis tasks show <task_id>")
	}

	tr, store, err := openTracker(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	task, ok := tr.Get(id)
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}

	status := "open"
	if task.Complete {
		status = "done"
	}
	fmt.Printf("ID:     %s\n", task.ID)
	fmt.Printf("Title:  %s\n", task.Title)
	fmt.Printf("Due:    %s\n", task.DueDate.Format("2006-01-02 15:04"))
	fmt.Printf("Label:  %s\n", task.Label)
	fmt.Printf("Status: %s\n", status)
	return nil
}

// buildCLITracker opens the store and loads the cache without event or
// extraction wiring.
func buildCLITracker(ctx context.Context, cfg *config.Config) (*tracker.Tracker, tasks.Store, error) {
	store, err := tasks.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	tr := tracker.New(store, nil, nil)
	if err := tr.Load(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return tr, store, nil
}
