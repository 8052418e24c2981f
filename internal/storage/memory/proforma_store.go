package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/storage"
)

// ProFormaStore is an in-memory implementation of storage.ProFormaStore.
type ProFormaStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ProFormaRecord // keyed by proforma_id
}

// NewProFormaStore creates a new in-memory pro-forma store.
func NewProFormaStore() *ProFormaStore {
	return &ProFormaStore{
		data: make(map[string]*domain.ProFormaRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if proforma_id exists.
func (s *ProFormaStore) Insert(_ context.Context, r *domain.ProFormaRecord) error {
	if r == nil || r.ProFormaID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ProFormaID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ProFormaID] = r.Clone()
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *ProFormaStore) GetByID(_ context.Context, proFormaID string) (*domain.ProFormaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[proFormaID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// GetByCustomer retrieves all records for a customer, ordered by created_at ASC.
func (s *ProFormaStore) GetByCustomer(_ context.Context, customerName string) ([]*domain.ProFormaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProFormaRecord
	for _, r := range s.data {
		if r.CustomerName == customerName {
			result = append(result, r.Clone())
		}
	}
	sortRecords(result)
	return result, nil
}

// GetAll retrieves all records, ordered by created_at ASC.
func (s *ProFormaStore) GetAll(_ context.Context) ([]*domain.ProFormaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ProFormaRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r.Clone())
	}
	sortRecords(result)
	return result, nil
}

func sortRecords(records []*domain.ProFormaRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].ProFormaID < records[j].ProFormaID
	})
}

var _ storage.ProFormaStore = (*ProFormaStore)(nil)
