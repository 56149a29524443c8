package cli

import (
	"github.com/spf13/cobra"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
)

func newReviewCmd(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review <transaction-id>",
		Short: "Show a transaction with its ranked ledger candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := parseUUIDArg("transaction ID", args[0])
			if err != nil {
				return err
			}
			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Review.Execute(cmd.Context(), reconciliation.GetReviewInput{
				TransactionID: txID,
				Limit:         limit,
			})
			if err != nil {
				return err
			}
			renderReview(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of candidates (0 uses the configured limit)")
	return cmd
}

func newSummaryCmd(s *session) *cobra.Command {
	var venue string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count a venue's bank transactions by reconciliation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			venueID, err := parseUUIDArg("venue ID", venue)
			if err != nil {
				return err
			}
			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := uc.Summary.Execute(cmd.Context(), reconciliation.GetSummaryInput{VenueID: venueID})
			if err != nil {
				return err
			}
			renderSummary(summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&venue, "venue", "v", "", "Venue ID")
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}
