// Package api contains API contract definitions for the billing service.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"autobill/pkg/contracts/domain"
)

// Billing API Requests

// SelectionRequest is an operator-chosen window for one link. Empty bounds
// fall back to the link's observed range. Bounds accept a date
// (2006-01-02, end date inclusive) or a date-time.
type SelectionRequest struct {
	Link  string `json:"link" validate:"required"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// ComputeRequest asks for the percentiles of one data type.
type ComputeRequest struct {
	Kind       string             `json:"kind" validate:"required,sourcekind"`
	Selections []SelectionRequest `json:"selections,omitempty" validate:"omitempty,dive"`
}

// ExportRequest asks for the result workbook of one data type.
type ExportRequest struct {
	Kind       string             `json:"kind" validate:"required,sourcekind"`
	Selections []SelectionRequest `json:"selections,omitempty" validate:"omitempty,dive"`
	FileName   string             `json:"file_name,omitempty" validate:"max=200"`
}

// Billing API Responses

// KindSummary describes one dataset loaded into a session.
type KindSummary struct {
	Kind   domain.SourceKind `json:"kind"`
	Source string            `json:"source"`
	Rows   int               `json:"rows"`
	Links  int               `json:"links"`
}

// SessionResponse is returned after an upload.
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	Kinds     []KindSummary `json:"kinds"`
	Warnings  []string      `json:"warnings"`
}

// LinkResponse is a link with its observed range.
type LinkResponse struct {
	Link  string    `json:"link"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LinksResponse lists the links of one data type.
type LinksResponse struct {
	Kind  domain.SourceKind `json:"kind"`
	Links []LinkResponse    `json:"links"`
}

// PercentilesResponse carries one computation.
type PercentilesResponse struct {
	Kind        domain.SourceKind         `json:"kind"`
	Level       float64                   `json:"level"`
	Column      string                    `json:"column"`
	Percentiles []domain.PercentileResult `json:"percentiles"`
	Quality     domain.QualityReport      `json:"quality"`
}
