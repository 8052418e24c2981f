package clickhouse

import (
	"context"
	"fmt"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/storage"
)

// CashFlowStore implements storage.CashFlowStore using ClickHouse.
// Decimal(38, 10) columns map directly to decimal.Decimal in the driver.
type CashFlowStore struct {
	conn *Conn
}

// NewCashFlowStore creates a new CashFlowStore.
func NewCashFlowStore(conn *Conn) *CashFlowStore {
	return &CashFlowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CashFlowStore = (*CashFlowStore)(nil)

// InsertBulk adds all rows of one pro-forma. Fails entire batch on duplicate (proforma_id, year).
func (s *CashFlowStore) InsertBulk(ctx context.Context, proFormaID string, rows []domain.CashFlowRow) error {
	if proFormaID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if r.Year <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Year]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Year] = struct{}{}
	}

	// MergeTree does not enforce keys; check existing rows explicitly
	existing, err := s.existingYears(ctx, proFormaID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for year := range seen {
		if _, exists := existing[year]; exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO cash_flows (
			proforma_id, year, calendar_year,
			electric_rate, production_kwh, electric_savings,
			srec_price, srec_count, srec_revenue,
			total_inflow, cumulative_inflow, cumulative_cash_flow
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			proFormaID, uint16(r.Year), uint16(r.CalendarYear),
			r.ElectricRate, r.ProductionKWh, r.ElectricSavings,
			r.SRECPrice, r.SRECCount, r.SRECRevenue,
			r.TotalInflow, r.CumulativeInflow, r.CumulativeCashFlow,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByProFormaID retrieves all rows of a pro-forma, ordered by year ASC.
func (s *CashFlowStore) GetByProFormaID(ctx context.Context, proFormaID string) ([]domain.CashFlowRow, error) {
	query := `
		SELECT
			year, calendar_year,
			electric_rate, production_kwh, electric_savings,
			srec_price, srec_count, srec_revenue,
			total_inflow, cumulative_inflow, cumulative_cash_flow
		FROM cash_flows
		WHERE proforma_id = ?
		ORDER BY year ASC
	`

	rows, err := s.conn.Query(ctx, query, proFormaID)
	if err != nil {
		return nil, fmt.Errorf("query by proforma id: %w", err)
	}
	defer rows.Close()

	return scanCashFlows(rows)
}

func (s *CashFlowStore) existingYears(ctx context.Context, proFormaID string) (map[int]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT year FROM cash_flows WHERE proforma_id = ?`, proFormaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := make(map[int]struct{})
	for rows.Next() {
		var year uint16
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years[int(year)] = struct{}{}
	}
	return years, rows.Err()
}

// scanCashFlows scans multiple rows.
func scanCashFlows(rows chRows) ([]domain.CashFlowRow, error) {
	var result []domain.CashFlowRow

	for rows.Next() {
		var r domain.CashFlowRow
		var year, calendarYear uint16

		err := rows.Scan(
			&year, &calendarYear,
			&r.ElectricRate, &r.ProductionKWh, &r.ElectricSavings,
			&r.SRECPrice, &r.SRECCount, &r.SRECRevenue,
			&r.TotalInflow, &r.CumulativeInflow, &r.CumulativeCashFlow,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cash flow row: %w", err)
		}

		r.Year = int(year)
		r.CalendarYear = int(calendarYear)
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cash flow rows: %w", err)
	}

	return result, nil
}
