package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	commitments "energy-commitments/internal/commitments/domain"
)

const defaultReportsTable = "compromisos_energia"

// ReportRepository persists commitment rows by report date.
type ReportRepository struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ReportRepository)

// WithTable overrides the reports table name.
func WithTable(table string) RepositoryOption {
	return func(repo *ReportRepository) {
		if repo != nil && table != "" {
			repo.table = table
		}
	}
}

// NewReportRepository constructs a repository.
func NewReportRepository(db *sql.DB, opts ...RepositoryOption) *ReportRepository {
	repo := &ReportRepository{db: db, table: defaultReportsTable, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListByDate returns the rows stored for the report date.
func (r *ReportRepository) ListByDate(ctx context.Context, date time.Time) ([]commitments.CommitmentRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	if date.IsZero() {
		return nil, commitments.ErrInvalidDate
	}
	query := fmt.Sprintf(`
SELECT anio, mes, dia, codigo_planta, consolidado_planta, compromisos_mcop, operacion
FROM %s
WHERE anio = $1 AND mes = $2 AND dia = $3
ORDER BY codigo_planta ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, date.Year(), int(date.Month()), date.Day())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []commitments.CommitmentRow
	for rows.Next() {
		var row commitments.CommitmentRow
		var balance decimal.Decimal
		var value decimal.Decimal
		var operation string
		if err := rows.Scan(&row.Year, &row.Month, &row.Day, &row.PlantCode, &balance, &value, &operation); err != nil {
			return nil, err
		}
		row.ConsolidatedBalance = balance
		row.CommitmentValue = value
		row.Operation = commitments.Operation(operation)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveReport replaces the rows of the report date in one transaction.
func (r *ReportRepository) SaveReport(ctx context.Context, date time.Time, rows []commitments.CommitmentRow) error {
	if r == nil || r.db == nil {
		return errors.New("report repo: nil db")
	}
	if date.IsZero() {
		return commitments.ErrInvalidDate
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
DELETE FROM %s WHERE anio = $1 AND mes = $2 AND dia = $3`, r.table),
		date.Year(), int(date.Month()), date.Day())
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	createdAt := r.now()
	insert := fmt.Sprintf(`
INSERT INTO %s (
	anio, mes, dia, codigo_planta, consolidado_planta, compromisos_mcop, operacion, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, r.table)
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, insert,
			row.Year, row.Month, row.Day, row.PlantCode,
			row.ConsolidatedBalance, row.CommitmentValue, string(row.Operation), createdAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
