package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/ldi/taskake/internal/store"
	"github.com/ldi/taskake/internal/taskview"
	"github.com/ldi/taskake/internal/ui"
	"github.com/ldi/taskake/internal/ui/components"
	"github.com/ldi/taskake/pkg/models"
)

const rule = "--------------------------------------------------------------------------------"

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dueString(t models.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.Local().Format("2006-01-02")
}

func assigneeString(t models.Task) string {
	if t.Assignee != nil {
		if name := t.Assignee.DisplayName(); name != "" {
			return name
		}
	}
	if id, ok := t.AssigneeKey().ID(); ok {
		return id
	}
	return "-"
}

func printTaskTable(tasks []models.Task) {
	fmt.Fprintf(stdout, "%-10s %-32s %-12s %-9s %-11s %-16s\n", "ID", "TITLE", "STATUS", "PRIORITY", "DUE", "ASSIGNEE")
	fmt.Fprintln(stdout, rule)
	for _, t := range tasks {
		fmt.Fprintf(stdout, "%-10s %-32s %-12s %-9s %-11s %-16s\n",
			truncate(t.ID, 10), truncate(t.Title, 32), t.Status, t.Priority, dueString(t), truncate(assigneeString(t), 16))
	}
}

func printDeadlines(tasks []models.Task, snap taskview.Snapshot) {
	for _, t := range tasks {
		fmt.Fprintf(stdout, "  - %s [%s] %s\n", t.Title, ui.PriorityLabel(t.Priority), components.RelativeDue(*t.DueDate, snap.At))
	}
}

func runListTasks(args []string) error {
	st, _, err := loadStore("list-tasks", args, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	printTaskTable(st.Engine().Tasks())

	p := st.Pagination()
	fmt.Fprintf(stdout, "\nPage %d/%d (%d tasks total)\n", p.Page, p.TotalPages, p.Total)
	return nil
}

func runStatus(args []string) error {
	st, _, err := loadStore("status", args, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	snap := st.Engine().Snapshot()
	printStatus(snap, st.Pagination())
	return nil
}

func printStatus(snap taskview.Snapshot, p models.Pagination) {
	c := snap.CompletionSummary()

	fmt.Fprintln(stdout, "Taskake Status")
	fmt.Fprintln(stdout, "==============")
	fmt.Fprintf(stdout, "Tasks Loaded:    %d of %d\n", len(snap.Tasks), p.Total)
	fmt.Fprintf(stdout, "Completion:      %d%% (%d/%d done)\n", c.Percentage, c.Done, c.Total)
	fmt.Fprintf(stdout, "Overdue:         %d\n", len(snap.Overdue))
	fmt.Fprintf(stdout, "Due in %d days:  %d\n", snap.UpcomingWindowDays, len(snap.Upcoming))

	fmt.Fprintln(stdout, "\nBy Status:")
	for _, s := range models.ValidTaskStatuses {
		fmt.Fprintf(stdout, "  %-12s %d\n", ui.StatusLabel(s)+":", len(snap.ByStatus[s]))
	}

	fmt.Fprintln(stdout, "\nBy Priority:")
	for i := len(models.ValidTaskPriorities) - 1; i >= 0; i-- {
		p := models.ValidTaskPriorities[i]
		fmt.Fprintf(stdout, "  %-12s %d\n", ui.PriorityLabel(p)+":", len(snap.ByPriority[p]))
	}

	if len(snap.Upcoming) > 0 {
		fmt.Fprintln(stdout, "\nNext Deadlines:")
		next := snap.Upcoming
		if len(next) > 5 {
			next = next[:5]
		}
		printDeadlines(next, snap)
	}
}

func runOverdue(args []string) error {
	st, _, err := loadStore("overdue", args, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	snap := st.Engine().Snapshot()
	if len(snap.Overdue) == 0 {
		fmt.Fprintln(stdout, "No overdue tasks.")
		return nil
	}
	fmt.Fprintf(stdout, "Overdue Tasks (%d)\n", len(snap.Overdue))
	printDeadlines(snap.Overdue, snap)
	return nil
}

func runUpcoming(args []string) error {
	var days int
	st, cfg, err := loadStore("upcoming", args, func(fs *flag.FlagSet) {
		fs.IntVar(&days, "days", 0, "Window length in days (defaults to TASKAKE_UPCOMING_DAYS)")
	})
	if err != nil {
		return err
	}
	defer st.Close()

	if days < 0 {
		return fmt.Errorf("days must be a positive integer")
	}
	if days == 0 {
		days = cfg.UpcomingDays
	}

	engine := st.Engine()
	engine.SetUpcomingWindow(days)
	snap := engine.Snapshot()
	if len(snap.Upcoming) == 0 {
		fmt.Fprintf(stdout, "Nothing due in the next %d days.\n", days)
		return nil
	}
	fmt.Fprintf(stdout, "Due in the next %d days (%d)\n", days, len(snap.Upcoming))
	printDeadlines(snap.Upcoming, snap)
	return nil
}

func runListProjects(args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by status (planning, active, on_hold, completed, cancelled)")
	search := fs.String("search", "", "Full text search")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}
	list, err := client.ListProjects(context.Background(), models.ProjectListParams{
		Status: models.ProjectStatus(*status),
		Search: *search,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%-38s %-28s %-10s\n", "ID", "NAME", "STATUS")
	fmt.Fprintln(stdout, rule)
	for _, p := range list.Projects {
		fmt.Fprintf(stdout, "%-38s %-28s %-10s\n", p.ID, truncate(p.Name, 28), p.Status)
	}
	return nil
}

func runProject(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: taskake project PROJECT_ID")
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	ps := store.NewProjectSession(client, args[0], getLogger())
	defer ps.Close()
	ps.Tasks.Engine().SetUpcomingWindow(cfg.UpcomingDays)

	if err := ps.LoadAll(context.Background()); err != nil {
		return err
	}

	project := ps.Project()
	fmt.Fprintf(stdout, "%s (%s)\n", project.Name, project.Status)
	if project.Description != "" {
		fmt.Fprintln(stdout, project.Description)
	}
	fmt.Fprintln(stdout)

	printStatus(ps.Tasks.Engine().Snapshot(), ps.Tasks.Pagination())

	if stats := ps.Stats(); stats != nil {
		fmt.Fprintf(stdout, "\nServer Totals:   %d tasks, %d%% complete, %d overdue\n",
			stats.TotalTasks, stats.CompletionPercentage, stats.OverdueTasks)
	}

	if activity := ps.Activity(); len(activity) > 0 {
		fmt.Fprintln(stdout, "\nRecent Activity:")
		for _, a := range activity {
			fmt.Fprintf(stdout, "  %s %s %s %s\n",
				a.CreatedAt.Local().Format("Jan 2 15:04"), a.UserName, a.Action, strings.TrimSpace(a.EntityType+" "+a.EntityName))
		}
	}
	return nil
}

func runWhoami(args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	user, err := client.GetCurrentUser(context.Background())
	if err != nil {
		return err
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	fmt.Fprintf(stdout, "%s <%s>\n", name, user.Email)
	fmt.Fprintf(stdout, "Organization: %s\n", client.OrgID())
	return nil
}

func runListUsers(args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	users, err := client.ListUsers(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%-38s %-24s %-28s %-8s\n", "ID", "NAME", "EMAIL", "ROLE")
	fmt.Fprintln(stdout, rule)
	for _, u := range users {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		fmt.Fprintf(stdout, "%-38s %-24s %-28s %-8s\n", u.ID, truncate(name, 24), truncate(u.Email, 28), u.Role)
	}
	return nil
}
