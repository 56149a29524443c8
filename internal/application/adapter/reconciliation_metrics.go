// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"time"

	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// ReconciliationMetrics records operational metrics of the engine.
type ReconciliationMetrics interface {
	// ObserveBatch records a finished batch run.
	ObserveBatch(result *valueobject.BatchResult, duration time.Duration)

	// ObserveAction records a reviewer action and its outcome ("ok" or an error code).
	ObserveAction(action valueobject.ReconciliationAction, outcome string)
}
