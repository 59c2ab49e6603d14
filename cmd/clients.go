package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/store"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List stored clients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stageFlag, _ := cmd.Flags().GetString("stage")
		limit, _ := cmd.Flags().GetInt("limit")

		var filter store.ClientFilter
		if stageFlag != "" {
			filter.Stage = model.ParseLifecycleStage(stageFlag)
			if filter.Stage == "" {
				return eris.Errorf("clients: unknown --stage %q", stageFlag)
			}
		}
		filter.Limit = limit

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		clients, err := st.ListClients(ctx, filter)
		if err != nil {
			return err
		}
		formatClients(cmd.OutOrStdout(), clients)
		return nil
	},
}

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Record a contact with a client",
	Long: `Log a call, email, meeting, or note. The most recent contact drives
the staleness part of the task priority score.

Examples:
  contact --client c-1001 --type call --notes "discussed rollover"
  contact --client c-1001 --type meeting --at 2024-05-01T15:00:00Z`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		clientID, _ := cmd.Flags().GetString("client")
		typeFlag, _ := cmd.Flags().GetString("type")
		notes, _ := cmd.Flags().GetString("notes")
		atFlag, _ := cmd.Flags().GetString("at")

		activity, err := buildActivity(clientID, typeFlag, notes, atFlag, time.Now())
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if _, err := st.GetClient(ctx, clientID); err != nil {
			return eris.Wrapf(err, "contact: client %s", clientID)
		}
		if err := st.RecordActivity(ctx, activity); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s with %s at %s\n",
			activity.Type, clientID, activity.OccurredAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	clientsCmd.Flags().String("stage", "", "filter by lifecycle stage")
	clientsCmd.Flags().Int("limit", 0, "maximum number of clients (0=all)")
	rootCmd.AddCommand(clientsCmd)

	f := contactCmd.Flags()
	f.String("client", "", "client ID (required)")
	f.String("type", string(model.ActivityCall), "activity type: call, email, meeting, or note")
	f.String("notes", "", "free-text notes")
	f.String("at", "", "when it happened, RFC3339 (default: now)")
	_ = contactCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(contactCmd)
}

func buildActivity(clientID, activityType, notes, at string, now time.Time) (model.Activity, error) {
	a := model.Activity{
		ClientID:   clientID,
		Type:       model.ActivityType(strings.ToLower(strings.TrimSpace(activityType))),
		Notes:      notes,
		OccurredAt: now.UTC(),
	}
	switch a.Type {
	case model.ActivityCall, model.ActivityEmail, model.ActivityMeeting, model.ActivityNote:
	default:
		return a, eris.Errorf("contact: --type must be call, email, meeting, or note (got %q)", activityType)
	}
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return a, eris.Wrapf(err, "contact: parse --at %q", at)
		}
		a.OccurredAt = t.UTC()
	}
	return a, a.Validate()
}

// formatClients writes a tabular client list to out.
func formatClients(out io.Writer, clients []model.ClientProfile) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tRISK\tSTAGE\tINCOME\tPORTFOLIO\tCONVERSION")
	for _, c := range clients {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%.0f%%\n",
			c.ID, c.Name, c.Age, c.RiskTolerance, c.LifecycleStage,
			formatMoney(c.AnnualIncome), formatMoney(c.PortfolioValue), c.ConversionProbability)
	}
	w.Flush() //nolint:errcheck
}
