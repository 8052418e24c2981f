package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/storage"
)

// CashFlowStore is an in-memory implementation of storage.CashFlowStore.
type CashFlowStore struct {
	mu   sync.RWMutex
	data map[string]map[int]domain.CashFlowRow // proforma_id -> year -> row
}

// NewCashFlowStore creates a new in-memory cash-flow store.
func NewCashFlowStore() *CashFlowStore {
	return &CashFlowStore{
		data: make(map[string]map[int]domain.CashFlowRow),
	}
}

// InsertBulk adds all rows of one pro-forma. Fails entire batch on duplicate (proforma_id, year).
func (s *CashFlowStore) InsertBulk(_ context.Context, proFormaID string, rows []domain.CashFlowRow) error {
	if proFormaID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[proFormaID]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if r.Year <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[r.Year]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.Year]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.Year] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int]domain.CashFlowRow, len(rows))
		s.data[proFormaID] = existing
	}
	for _, r := range rows {
		existing[r.Year] = r
	}
	return nil
}

// GetByProFormaID retrieves all rows of a pro-forma, ordered by year ASC.
func (s *CashFlowStore) GetByProFormaID(_ context.Context, proFormaID string) ([]domain.CashFlowRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byYear := s.data[proFormaID]
	result := make([]domain.CashFlowRow, 0, len(byYear))
	for _, r := range byYear {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Year < result[j].Year
	})
	return result, nil
}

var _ storage.CashFlowStore = (*CashFlowStore)(nil)
