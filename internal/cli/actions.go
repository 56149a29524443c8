package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
)

type actionFlags struct {
	Actor string
}

func addActorFlag(cmd *cobra.Command, flags *actionFlags, required bool) {
	cmd.Flags().StringVarP(&flags.Actor, "actor", "a", "", "Reviewer ID recorded on the transaction")
	if required {
		_ = cmd.MarkFlagRequired("actor")
	}
}

func (f *actionFlags) actorID() (uuid.UUID, error) {
	if f.Actor == "" {
		return uuid.Nil, nil
	}
	return parseUUIDArg("actor ID", f.Actor)
}

func newConfirmCmd(s *session) *cobra.Command {
	flags := &actionFlags{}
	cmd := &cobra.Command{
		Use:   "confirm <transaction-id>",
		Short: "Confirm the proposed match of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, actorID, err := actionArgs(args[0], flags)
			if err != nil {
				return err
			}
			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Confirm.Execute(cmd.Context(), reconciliation.ConfirmInput{TransactionID: txID, ActorID: actorID})
			if err != nil {
				return err
			}
			renderActionResult("Confirmed", out.Transaction)
			return nil
		},
	}
	addActorFlag(cmd, flags, true)
	return cmd
}

func newMatchCmd(s *session) *cobra.Command {
	flags := &actionFlags{}
	cmd := &cobra.Command{
		Use:   "match <transaction-id> <entry-id>",
		Short: "Link a transaction to a ledger entry of your choice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, actorID, err := actionArgs(args[0], flags)
			if err != nil {
				return err
			}
			entryID, err := parseUUIDArg("entry ID", args[1])
			if err != nil {
				return err
			}
			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.ManualMatch.Execute(cmd.Context(), reconciliation.ManualMatchInput{
				TransactionID: txID,
				EntryID:       entryID,
				ActorID:       actorID,
			})
			if err != nil {
				return err
			}
			renderActionResult("Matched", out.Transaction)
			return nil
		},
	}
	addActorFlag(cmd, flags, true)
	return cmd
}

func newIgnoreCmd(s *session) *cobra.Command {
	flags := &actionFlags{}
	cmd := &cobra.Command{
		Use:   "ignore <transaction-id>",
		Short: "Mark a transaction as not requiring reconciliation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, actorID, err := actionArgs(args[0], flags)
			if err != nil {
				return err
			}
			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Ignore.Execute(cmd.Context(), reconciliation.IgnoreInput{TransactionID: txID, ActorID: actorID})
			if err != nil {
				return err
			}
			renderActionResult("Ignored", out.Transaction)
			return nil
		},
	}
	addActorFlag(cmd, flags, true)
	return cmd
}

func newUnmatchCmd(s *session) *cobra.Command {
	flags := &actionFlags{}
	cmd := &cobra.Command{
		Use:   "unmatch <transaction-id>",
		Short: "Return a transaction to PENDING, dropping its link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, actorID, err := actionArgs(args[0], flags)
			if err != nil {
				return err
			}
			uc, err := s.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Unmatch.Execute(cmd.Context(), reconciliation.UnmatchInput{TransactionID: txID, ActorID: actorID})
			if err != nil {
				return err
			}
			renderActionResult("Unmatched", out.Transaction)
			return nil
		},
	}
	addActorFlag(cmd, flags, false)
	return cmd
}

func actionArgs(txArg string, flags *actionFlags) (uuid.UUID, uuid.UUID, error) {
	txID, err := parseUUIDArg("transaction ID", txArg)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	actorID, err := flags.actorID()
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return txID, actorID, nil
}
