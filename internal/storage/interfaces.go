package storage

import (
	"context"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// ProFormaStore provides access to saved pro-forma records.
type ProFormaStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if proforma_id exists.
	Insert(ctx context.Context, r *domain.ProFormaRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, proFormaID string) (*domain.ProFormaRecord, error)

	// GetByCustomer retrieves all records for a customer, ordered by created_at ASC.
	GetByCustomer(ctx context.Context, customerName string) ([]*domain.ProFormaRecord, error)

	// GetAll retrieves all records, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.ProFormaRecord, error)
}

// CashFlowStore provides access to the stored 25-year rows of saved pro-formas.
type CashFlowStore interface {
	// InsertBulk adds all rows of one pro-forma. Fails entire batch on duplicate (proforma_id, year).
	InsertBulk(ctx context.Context, proFormaID string, rows []domain.CashFlowRow) error

	// GetByProFormaID retrieves all rows of a pro-forma, ordered by year ASC.
	GetByProFormaID(ctx context.Context, proFormaID string) ([]domain.CashFlowRow, error)
}
