// Package dto defines data transfer objects for API requests and responses.
package dto

import "github.com/google/uuid"

// ErrorResponse represents an error response.
// CurrentStatus is set when an action was rejected because of the transaction's state.
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code,omitempty"`
	Details       string `json:"details,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
}

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
