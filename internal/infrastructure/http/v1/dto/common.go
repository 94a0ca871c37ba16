// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"foodchain/internal/core/id"
	"foodchain/internal/domain/catalogs/material"
)

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("hsn", func(fl validator.FieldLevel) bool {
		return material.ValidHSN(fl.Field().String())
	})
}

// --- Quantities ---

// QuantityRequest is a packets plus loose units pair.
type QuantityRequest struct {
	Packets    int64 `json:"packets" binding:"min=0"`
	LooseUnits int64 `json:"looseUnits" binding:"min=0"`
}

// MaterialRef identifies a material by id or code.
type MaterialRef struct {
	MaterialID   *id.ID `json:"materialId"`
	MaterialCode string `json:"materialCode"`
}

// ToRef converts to material.Ref.
func (r MaterialRef) ToRef() material.Ref {
	return material.Ref{ID: r.MaterialID, Code: r.MaterialCode}
}

// ParseDate accepts YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// --- Common responses ---

// NoteRequest carries a free-text note or reason.
type NoteRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// CountResponse reports how many records an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
