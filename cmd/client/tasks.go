package main

import (
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskboard/internal/api"
	"github.com/gurkanbulca/taskboard/internal/filter"
)

func newTasksCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(opts),
		newTasksShowCmd(opts),
		newTasksCreateCmd(opts),
		newTasksCompleteCmd(opts),
		newTasksDeleteCmd(opts),
	)
	return cmd
}

func newTasksListCmd(opts *globalOptions) *cobra.Command {
	var (
		completed     bool
		author        string
		after, before string
		page          string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks, completed tasks, or the tasks of one author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/tasks"
			query := url.Values{}
			switch {
			case author != "":
				path = "/users/" + url.PathEscape(author) + "/tasks"
			case completed:
				path = "/tasks/completed"
			}
			if author == "" {
				if after != "" {
					query.Set(filter.ParamAfter, after)
				}
				if before != "" {
					query.Set(filter.ParamBefore, before)
				}
			}
			if page != "" {
				query.Set("page", page)
			}

			p, err := opts.client().listTasks(path, query)
			if err != nil {
				return err
			}
			return printTaskPage(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "list completed tasks")
	cmd.Flags().StringVar(&author, "author", "", "list the tasks posted by this username")
	cmd.Flags().StringVar(&after, "after", "", "only tasks on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "only tasks on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&page, "page", "", `page number or "last"`)
	cmd.MarkFlagsMutuallyExclusive("completed", "author")
	return cmd
}

func newTasksShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.client().getTask(args[0])
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), task)
			return nil
		},
	}
}

func newTasksCreateCmd(opts *globalOptions) *cobra.Command {
	var (
		req              api.CreateTaskRequest
		dueDate, dueTime string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dueDate != "" || dueTime != "" {
				req.DueDate = &api.DueDateInput{Date: dueDate, Time: dueTime}
			}
			task, err := opts.client().createTask(req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "task title")
	cmd.Flags().StringVar(&req.Content, "content", "", "task description")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueTime, "due-time", "", "due time (HH:MM)")
	cmd.Flags().StringVar(&req.CompleterID, "completer", "", "id of the user who will complete the task")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksCompleteCmd(opts *globalOptions) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.client().completeTask(args[0], comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "completion comment")
	return cmd
}

func newTasksDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().deleteTask(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
}

const timeLayout = "2006-01-02 15:04"

func printTaskPage(out io.Writer, p *api.TaskPageResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tSTATUS\tDUE")
	for _, t := range p.Tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Author, t.Status, t.DueDate.Format(timeLayout))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Page %d of %d (%d tasks)\n", p.Page, p.NumPages, p.Total)
	return nil
}

func printTask(out io.Writer, t *api.TaskResponse) {
	fmt.Fprintf(out, "ID: %s\n", t.ID)
	fmt.Fprintf(out, "Title: %s\n", t.Title)
	fmt.Fprintf(out, "Author: %s\n", t.Author)
	fmt.Fprintf(out, "Status: %s\n", t.Status)
	fmt.Fprintf(out, "Posted: %s\n", t.DatePosted.Format(timeLayout))
	fmt.Fprintf(out, "Due: %s\n", t.DueDate.Format(timeLayout))
	if t.Completer != nil {
		fmt.Fprintf(out, "Completer: %s\n", *t.Completer)
	}
	if t.DateCompleted != nil {
		fmt.Fprintf(out, "Completed: %s\n", t.DateCompleted.Format(timeLayout))
	}
	if t.CompletionComment != nil && *t.CompletionComment != "" {
		fmt.Fprintf(out, "Comment: %s\n", *t.CompletionComment)
	}
	if t.Content != "" {
		fmt.Fprintf(out, "\n%s\n", t.Content)
	}
}
