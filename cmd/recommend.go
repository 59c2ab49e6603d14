package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/advisor-cli/internal/model"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank investment products for a client",
	Long: `Score every product in the catalog against a stored client and print the
top five with confidence and rationale.

Examples:
  recommend --client c-1001
  recommend --client c-1001 --format json --output recs.json`,
	RunE: runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.String("client", "", "client ID (required)")
	f.String("format", "table", "output format: table or json")
	f.String("output", "", "output file path (default: stdout)")
	_ = recommendCmd.MarkFlagRequired("client")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientID, _ := cmd.Flags().GetString("client")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if format != "table" && format != "json" {
		return eris.Errorf("recommend: --format must be table or json (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	client, err := st.GetClient(ctx, clientID)
	if err != nil {
		return eris.Wrapf(err, "recommend: client %s", clientID)
	}
	recs, err := newService(st).RecommendForClient(ctx, clientID)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	if format == "json" {
		return writeJSON(w, recs)
	}
	return writeRecommendationTable(w, client, recs)
}

func writeRecommendationTable(w io.Writer, client *model.ClientProfile, recs []model.Recommendation) error {
	fmt.Fprintf(w, "Client:    %s (%s)\n", client.Name, client.ID)
	fmt.Fprintf(w, "Age:       %d\n", client.Age)
	fmt.Fprintf(w, "Income:    %s\n", formatMoney(client.AnnualIncome))
	fmt.Fprintf(w, "Portfolio: %s\n", formatMoney(client.PortfolioValue))
	fmt.Fprintf(w, "Risk:      %s\n\n", client.RiskTolerance)

	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No products in catalog.")
		return eris.Wrap(err, "recommend: write table")
	}

	header := fmt.Sprintf("%-4s %-30s %-13s %-7s %5s %8s  %s\n",
		"#", "Product", "Type", "Risk", "Conf", "Return", "Reason")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "recommend: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 110)); err != nil {
		return eris.Wrap(err, "recommend: write table separator")
	}

	for i, r := range recs {
		line := fmt.Sprintf("%-4d %-30s %-13s %-7s %4d%% %7.1f%%  %s\n",
			i+1, truncate(r.InvestmentName, 30), r.InvestmentType, r.RiskLevel,
			r.Confidence, r.ExpectedReturn, r.Reason)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "recommend: write table row")
		}
	}
	return nil
}
