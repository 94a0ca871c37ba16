package srn

import (
	"context"

	"foodchain/internal/core/id"
	"foodchain/internal/domain"
)

// Repository defines operations for SRN documents.
// GetByID and GetForUpdate return the header with its lines.
type Repository interface {
	Create(ctx context.Context, doc *SRN) error
	GetByID(ctx context.Context, docID id.ID) (*SRN, error)
	// Update writes the header. doc.Version must be one above the stored version.
	Update(ctx context.Context, doc *SRN) error
	Delete(ctx context.Context, docID id.ID) error

	// SaveLines replaces all lines of the document.
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SRN], error)

	// GetForUpdate locks the header row until the transaction ends.
	GetForUpdate(ctx context.Context, docID id.ID) (*SRN, error)
}

// ListFilter for filtering SRNs.
type ListFilter struct {
	domain.ListFilter
}
