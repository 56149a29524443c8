// Package valueobject contains domain value objects for the reconciliation engine.
package valueobject

import (
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

// ReconciliationStatus is the lifecycle state of a bank transaction.
type ReconciliationStatus string

const (
	StatusPending   ReconciliationStatus = "PENDING"
	StatusMatched   ReconciliationStatus = "MATCHED"
	StatusToReview  ReconciliationStatus = "TO_REVIEW"
	StatusManual    ReconciliationStatus = "MANUAL"
	StatusIgnored   ReconciliationStatus = "IGNORED"
	StatusUnmatched ReconciliationStatus = "UNMATCHED"
)

// AllStatuses lists every reconciliation status in lifecycle order.
var AllStatuses = []ReconciliationStatus{
	StatusPending,
	StatusMatched,
	StatusToReview,
	StatusManual,
	StatusIgnored,
	StatusUnmatched,
}

// IsValid reports whether s is one of the known statuses.
func (s ReconciliationStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CarriesLink reports whether a transaction in this status may reference a ledger entry.
func (s ReconciliationStatus) CarriesLink() bool {
	return s == StatusMatched || s == StatusToReview || s == StatusManual
}

// ReconciliationAction identifies a state-changing operation on a bank transaction.
type ReconciliationAction string

const (
	ActionClassifyMatched   ReconciliationAction = "classify_matched"
	ActionClassifyToReview  ReconciliationAction = "classify_to_review"
	ActionClassifyUnmatched ReconciliationAction = "classify_unmatched"
	ActionConfirm           ReconciliationAction = "confirm"
	ActionManualMatch       ReconciliationAction = "manual_match"
	ActionIgnore            ReconciliationAction = "ignore"
	ActionUnmatch           ReconciliationAction = "unmatch"
)

type transitionRule struct {
	from []ReconciliationStatus
	to   ReconciliationStatus
}

// transitions is the single source of truth for the lifecycle.
var transitions = map[ReconciliationAction]transitionRule{
	ActionClassifyMatched:   {from: []ReconciliationStatus{StatusPending}, to: StatusMatched},
	ActionClassifyToReview:  {from: []ReconciliationStatus{StatusPending}, to: StatusToReview},
	ActionClassifyUnmatched: {from: []ReconciliationStatus{StatusPending}, to: StatusUnmatched},
	ActionConfirm:           {from: []ReconciliationStatus{StatusToReview, StatusPending}, to: StatusMatched},
	ActionManualMatch:       {from: []ReconciliationStatus{StatusPending, StatusUnmatched, StatusToReview}, to: StatusManual},
	ActionIgnore:            {from: []ReconciliationStatus{StatusPending, StatusToReview, StatusUnmatched, StatusIgnored}, to: StatusIgnored},
	ActionUnmatch:           {from: []ReconciliationStatus{StatusMatched, StatusManual, StatusIgnored}, to: StatusPending},
}

// ClassifyAction returns the automatic-classification action producing status.
func ClassifyAction(status ReconciliationStatus) ReconciliationAction {
	switch status {
	case StatusMatched:
		return ActionClassifyMatched
	case StatusToReview:
		return ActionClassifyToReview
	default:
		return ActionClassifyUnmatched
	}
}

// AllowedFrom returns the statuses from which action may be applied.
func AllowedFrom(action ReconciliationAction) []ReconciliationStatus {
	rule, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]ReconciliationStatus, len(rule.from))
	copy(out, rule.from)
	return out
}

// Transition validates that action may be applied to a transaction in status current
// and returns the resulting status. hasLink tells whether the transaction currently
// references a ledger entry; confirm requires one.
func Transition(action ReconciliationAction, current ReconciliationStatus, hasLink bool) (ReconciliationStatus, error) {
	rule, ok := transitions[action]
	if !ok {
		return current, domainerror.NewStateError(
			domainerror.ErrCodeInvalidStateTransition,
			"unknown reconciliation action "+string(action),
			string(current),
		)
	}

	allowed := false
	for _, s := range rule.from {
		if s == current {
			allowed = true
			break
		}
	}
	if !allowed {
		if action == ActionConfirm {
			return current, domainerror.NewStateError(
				domainerror.ErrCodeNothingToConfirm,
				"nothing to confirm",
				string(current),
			)
		}
		return current, domainerror.NewStateError(
			domainerror.ErrCodeInvalidStateTransition,
			"cannot "+actionVerb(action)+" transaction",
			string(current),
		)
	}

	if action == ActionConfirm && !hasLink {
		return current, domainerror.NewStateError(
			domainerror.ErrCodeNothingToConfirm,
			"nothing to confirm",
			string(current),
		)
	}

	return rule.to, nil
}

func actionVerb(action ReconciliationAction) string {
	switch action {
	case ActionManualMatch:
		return "manually match"
	case ActionClassifyMatched, ActionClassifyToReview, ActionClassifyUnmatched:
		return "classify"
	default:
		return string(action)
	}
}
