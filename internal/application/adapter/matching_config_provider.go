// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// MatchingConfigProvider resolves the matching configuration of a venue.
type MatchingConfigProvider interface {
	// ForVenue returns the venue's configuration, falling back to the process default.
	ForVenue(venueID uuid.UUID) valueobject.MatchingConfig
}
