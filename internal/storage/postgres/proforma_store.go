package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/storage"
)

// ProFormaStore implements storage.ProFormaStore using PostgreSQL.
type ProFormaStore struct {
	pool *Pool
}

// NewProFormaStore creates a new ProFormaStore.
func NewProFormaStore(pool *Pool) *ProFormaStore {
	return &ProFormaStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProFormaStore = (*ProFormaStore)(nil)

const proFormaColumns = `
	proforma_id, customer_name, project_name, location, utility,
	system_size_kw::text, installed_cost::text, net_cost::text, year1_benefit::text,
	payback_year, input, created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if proforma_id exists.
func (s *ProFormaStore) Insert(ctx context.Context, r *domain.ProFormaRecord) error {
	if r == nil || r.ProFormaID == "" {
		return storage.ErrInvalidInput
	}

	input, err := json.Marshal(r.Input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}

	query := `
		INSERT INTO proformas (
			proforma_id, customer_name, project_name, location, utility,
			system_size_kw, installed_cost, net_cost, year1_benefit,
			payback_year, input, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::numeric, $7::numeric, $8::numeric, $9::numeric,
			$10, $11, $12
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ProFormaID, r.CustomerName, r.ProjectName, string(r.Location), string(r.Utility),
		numericArg(r.SystemSizeKW), numericArg(r.InstalledCost), numericArg(r.NetCost), numericArg(r.Year1Benefit),
		r.PaybackYear, input, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert proforma: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *ProFormaStore) GetByID(ctx context.Context, proFormaID string) (*domain.ProFormaRecord, error) {
	query := `SELECT ` + proFormaColumns + ` FROM proformas WHERE proforma_id = $1`

	r, err := scanProForma(s.pool.QueryRow(ctx, query, proFormaID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get proforma by id: %w", err)
	}
	return r, nil
}

// GetByCustomer retrieves all records for a customer, ordered by created_at ASC.
func (s *ProFormaStore) GetByCustomer(ctx context.Context, customerName string) ([]*domain.ProFormaRecord, error) {
	query := `SELECT ` + proFormaColumns + `
		FROM proformas
		WHERE customer_name = $1
		ORDER BY created_at ASC, proforma_id ASC
	`

	rows, err := s.pool.Query(ctx, query, customerName)
	if err != nil {
		return nil, fmt.Errorf("get proformas by customer: %w", err)
	}
	defer rows.Close()

	return scanProFormas(rows)
}

// GetAll retrieves all records, ordered by created_at ASC.
func (s *ProFormaStore) GetAll(ctx context.Context) ([]*domain.ProFormaRecord, error) {
	query := `SELECT ` + proFormaColumns + `
		FROM proformas
		ORDER BY created_at ASC, proforma_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all proformas: %w", err)
	}
	defer rows.Close()

	return scanProFormas(rows)
}

// scanProForma scans a single row into a ProFormaRecord.
func scanProForma(row pgx.Row) (*domain.ProFormaRecord, error) {
	var (
		r                                 domain.ProFormaRecord
		location, utility                 string
		sizeKW, installed, netCost, year1 string
		input                             []byte
	)

	err := row.Scan(
		&r.ProFormaID, &r.CustomerName, &r.ProjectName, &location, &utility,
		&sizeKW, &installed, &netCost, &year1,
		&r.PaybackYear, &input, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Location = domain.Location(location)
	r.Utility = domain.UtilityID(utility)

	if r.SystemSizeKW, err = parseNumeric("system_size_kw", sizeKW); err != nil {
		return nil, err
	}
	if r.InstalledCost, err = parseNumeric("installed_cost", installed); err != nil {
		return nil, err
	}
	if r.NetCost, err = parseNumeric("net_cost", netCost); err != nil {
		return nil, err
	}
	if r.Year1Benefit, err = parseNumeric("year1_benefit", year1); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(input, &r.Input); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	return &r, nil
}

// scanProFormas scans multiple rows.
func scanProFormas(rows pgx.Rows) ([]*domain.ProFormaRecord, error) {
	var records []*domain.ProFormaRecord
	for rows.Next() {
		r, err := scanProForma(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proforma row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proforma rows: %w", err)
	}
	return records, nil
}
