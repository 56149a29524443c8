// Package model defines database models for persistence layer.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// ReconciliationAuditModel represents the reconciliation_audit table in the database.
type ReconciliationAuditModel struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TransactionID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	VenueID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Action         string         `gorm:"type:varchar(30);not null"`
	PreviousStatus string         `gorm:"type:varchar(20);not null"`
	NewStatus      string         `gorm:"type:varchar(20);not null"`
	PreviousEntry  *uuid.UUID     `gorm:"type:uuid"`
	NewEntry       *uuid.UUID     `gorm:"type:uuid"`
	Confidence     *float64       `gorm:"type:decimal(3,2)"`
	Actor          *uuid.UUID     `gorm:"type:uuid"`
	Details        datatypes.JSON `gorm:"type:jsonb"` // score breakdown
	CreatedAt      time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for the ReconciliationAuditModel.
func (ReconciliationAuditModel) TableName() string {
	return "reconciliation_audit"
}

// ToEntity converts a ReconciliationAuditModel to a domain AuditEntry.
// A details column that cannot be decoded yields a nil breakdown.
func (m *ReconciliationAuditModel) ToEntity() *entity.AuditEntry {
	var breakdown *valueobject.ScoreBreakdown
	if len(m.Details) > 0 {
		var b valueobject.ScoreBreakdown
		if err := json.Unmarshal(m.Details, &b); err == nil {
			breakdown = &b
		}
	}

	return &entity.AuditEntry{
		ID:             m.ID,
		TransactionID:  m.TransactionID,
		VenueID:        m.VenueID,
		Action:         valueobject.ReconciliationAction(m.Action),
		PreviousStatus: valueobject.ReconciliationStatus(m.PreviousStatus),
		NewStatus:      valueobject.ReconciliationStatus(m.NewStatus),
		PreviousEntry:  m.PreviousEntry,
		NewEntry:       m.NewEntry,
		Confidence:     m.Confidence,
		Actor:          m.Actor,
		Breakdown:      breakdown,
		CreatedAt:      m.CreatedAt,
	}
}

// AuditFromEntity creates a ReconciliationAuditModel from a domain AuditEntry.
func AuditFromEntity(a *entity.AuditEntry) (*ReconciliationAuditModel, error) {
	m := &ReconciliationAuditModel{
		ID:             a.ID,
		TransactionID:  a.TransactionID,
		VenueID:        a.VenueID,
		Action:         string(a.Action),
		PreviousStatus: string(a.PreviousStatus),
		NewStatus:      string(a.NewStatus),
		PreviousEntry:  a.PreviousEntry,
		NewEntry:       a.NewEntry,
		Confidence:     a.Confidence,
		Actor:          a.Actor,
		CreatedAt:      a.CreatedAt,
	}

	if a.Breakdown != nil {
		details, err := json.Marshal(a.Breakdown)
		if err != nil {
			return nil, err
		}
		m.Details = datatypes.JSON(details)
	}

	return m, nil
}
