package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/scorer"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List clients to contact, most urgent first",
	Long: `Prioritize every stored client by contact staleness, conversion
likelihood, portfolio value, and lifecycle stage.

Examples:
  tasks
  tasks --priority high --limit 20
  tasks --format csv --output followups.csv`,
	RunE: runTasks,
}

func init() {
	f := tasksCmd.Flags()
	f.String("priority", "", "only show one tier: high, medium, or low")
	f.Int("limit", 0, "maximum number of tasks (0=use config default)")
	f.String("format", "table", "output format: table, csv, or json")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	priorityFlag, _ := cmd.Flags().GetString("priority")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	filter, err := parseTaskFilter(priorityFlag, limit)
	if err != nil {
		return err
	}
	if format != "table" && format != "csv" && format != "json" {
		return eris.Errorf("tasks: --format must be table, csv, or json (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	tasks, err := newService(st).TaskList(ctx, filter)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	zap.L().Debug("tasks: writing output", zap.String("format", format), zap.Int("count", len(tasks)))

	switch format {
	case "csv":
		return writeTasksCSV(w, tasks)
	case "json":
		return writeJSON(w, tasks)
	default:
		return writeTasksTable(w, tasks)
	}
}

func parseTaskFilter(priority string, limit int) (scorer.TaskFilter, error) {
	var filter scorer.TaskFilter
	if priority != "" {
		p, ok := model.ParsePriority(priority)
		if !ok {
			return filter, eris.Errorf("tasks: --priority must be high, medium, or low (got %q)", priority)
		}
		filter.Priority = p
	}
	if limit < 0 {
		return filter, eris.Errorf("tasks: --limit must be >= 0 (got %d)", limit)
	}
	filter.Limit = limit
	return filter, nil
}

func writeTasksCSV(w io.Writer, tasks []model.TaskPriorityResult) error {
	cw := csv.NewWriter(w)

	header := []string{"client_id", "client_name", "priority", "priority_score", "recommended_action", "reason"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "tasks: write CSV header")
	}

	for _, t := range tasks {
		row := []string{
			t.ClientID,
			t.ClientName,
			string(t.Priority),
			fmt.Sprintf("%d", t.PriorityScore),
			string(t.RecommendedAction),
			t.Reason,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "tasks: write CSV row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "tasks: flush CSV")
}

func writeTasksTable(w io.Writer, tasks []model.TaskPriorityResult) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return eris.Wrap(err, "tasks: write table")
	}

	header := fmt.Sprintf("%-14s %-28s %-8s %5s %-6s  %s\n",
		"Client", "Name", "Priority", "Score", "Action", "Reason")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "tasks: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 100)); err != nil {
		return eris.Wrap(err, "tasks: write table separator")
	}

	for _, t := range tasks {
		line := fmt.Sprintf("%-14s %-28s %-8s %5d %-6s  %s\n",
			truncate(t.ClientID, 14), truncate(t.ClientName, 28), t.Priority,
			t.PriorityScore, t.RecommendedAction, t.Reason)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "tasks: write table row")
		}
	}
	return nil
}
