package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
)

var importColumns = []string{"date", "description", "amount"}

func newImportCmd(s *session) *cobra.Command {
	var venue string

	cmd := &cobra.Command{
		Use:   "import <statement.csv>",
		Short: "Import a normalized bank statement",
		Long: `Import statement lines as PENDING bank transactions.

The CSV needs a header with the columns date, description and amount. Dates are
YYYY-MM-DD and amounts are signed (negative for outflows). Nothing is imported
when any line is malformed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			venueID, err := parseUUIDArg("venue ID", venue)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer f.Close()

			records, err := readStatement(f)
			if err != nil {
				return err
			}

			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Import.Execute(cmd.Context(), reconciliation.ImportTransactionsInput{
				VenueID: venueID,
				Records: records,
			})
			if err != nil {
				return err
			}

			pterm.Success.Printf("Imported %d transactions\n", out.ImportedCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&venue, "venue", "v", "", "Venue ID")
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

// readStatement parses a CSV statement. Columns are located by header name.
func readStatement(r io.Reader) ([]reconciliation.ImportRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("statement is empty")
		}
		return nil, fmt.Errorf("failed to read statement header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("statement header is missing column %q", col)
		}
	}

	var records []reconciliation.ImportRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, reconciliation.ImportRecord{
			Date:        row[index["date"]],
			Description: row[index["description"]],
			Amount:      row[index["amount"]],
		})
	}

	return records, nil
}
