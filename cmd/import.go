package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisor-cli/internal/importer"
)

var (
	importFile  string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a client book from YAML or XLSX",
	Long: `Load clients, products, holdings, and contact history from a YAML book,
or clients only from an XLSX spreadsheet. Every record is validated before
anything is written.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		book, err := importer.LoadFile(importFile, importSheet)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := importer.Apply(ctx, st, book)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int("clients", stats.Clients),
			zap.Int("investments", stats.Investments),
			zap.Int("holdings", stats.Holdings),
			zap.Int("activities", stats.Activities),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to book.yaml or clients.xlsx (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "worksheet name for XLSX (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
