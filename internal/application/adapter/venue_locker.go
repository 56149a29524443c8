// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"
)

// UnlockFunc releases a lock obtained from a VenueLocker.
type UnlockFunc func(ctx context.Context) error

// VenueLocker serializes batch runs per venue.
type VenueLocker interface {
	// TryLock obtains the venue lock without waiting.
	// Returns domainerror.ErrBatchInProgress when another holder owns it.
	TryLock(ctx context.Context, venueID uuid.UUID) (UnlockFunc, error)
}
