// Package cli implements the reconcile command-line tool.
package cli

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ledger-recon/backend/internal/integration/entrypoint/controller"
)

// OpenFunc connects to the stores and returns the wired use cases plus a cleanup.
type OpenFunc func(ctx context.Context) (*controller.ReconciliationUseCases, func(), error)

// session lazily opens the application once per invocation.
type session struct {
	open     OpenFunc
	useCases *controller.ReconciliationUseCases
	cleanup  func()
}

func (s *session) get(ctx context.Context) (*controller.ReconciliationUseCases, error) {
	if s.useCases != nil {
		return s.useCases, nil
	}
	useCases, cleanup, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.useCases, s.cleanup = useCases, cleanup
	return useCases, nil
}

func (s *session) close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// NewRootCmd builds the reconcile command tree. The database is opened on the
// first command that needs it; the returned func releases it.
func NewRootCmd(open OpenFunc) (*cobra.Command, func()) {
	s := &session{open: open}

	rootCmd := &cobra.Command{
		Use:           "reconcile",
		Short:         "Reconcile bank transactions against the ledger",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(
		newRunCmd(s),
		newImportCmd(s),
		newSummaryCmd(s),
		newReviewCmd(s),
		newConfirmCmd(s),
		newMatchCmd(s),
		newIgnoreCmd(s),
		newUnmatchCmd(s),
	)

	return rootCmd, s.close
}

// Execute runs the command tree and prints any error the way the rest of the output looks.
func Execute(ctx context.Context, open OpenFunc) int {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}

	rootCmd, closeSession := NewRootCmd(open)
	defer closeSession()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(capitalize(err.Error()))
		return 1
	}
	return 0
}

func parseUUIDArg(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", name, value)
	}
	return id, nil
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
