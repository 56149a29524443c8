package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
)

type runFlags struct {
	Venue    string
	From     string
	To       string
	AutoOnly bool
}

type runRunner struct {
	s     *session
	flags *runFlags
}

func newRunCmd(s *session) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run batch reconciliation for a venue",
		Long: `Classify every PENDING bank transaction of a venue as MATCHED, TO_REVIEW or
UNMATCHED against its best unclaimed ledger candidate.

With --auto-only anything short of MATCHED is recorded as UNMATCHED.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return (&runRunner{s: s, flags: flags}).Run(cmd)
		},
	}

	cmd.Flags().StringVarP(&flags.Venue, "venue", "v", "", "Venue ID")
	cmd.Flags().StringVar(&flags.From, "from", "", "First transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.To, "to", "", "Last transaction date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&flags.AutoOnly, "auto-only", false, "Only auto-match; never propose for review")
	_ = cmd.MarkFlagRequired("venue")

	return cmd
}

func (r *runRunner) Run(cmd *cobra.Command) error {
	venueID, err := parseUUIDArg("venue ID", r.flags.Venue)
	if err != nil {
		return err
	}

	input := reconciliation.BatchReconcileInput{
		VenueID:       venueID,
		AutoMatchOnly: r.flags.AutoOnly,
	}
	if input.DateFrom, err = parseDateFlag("from", r.flags.From); err != nil {
		return err
	}
	if input.DateTo, err = parseDateFlag("to", r.flags.To); err != nil {
		return err
	}

	uc, err := r.s.get(cmd.Context())
	if err != nil {
		return err
	}

	result, err := uc.Batch.Execute(cmd.Context(), input)
	if result != nil {
		renderBatchResult(result)
	}
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}
	return nil
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(reconciliation.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, value)
	}
	return &t, nil
}
