package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerColumns = `id, agency_id, event_kind, document_id, document_code, event_date, change, debt_after, created_at`

func (r *LedgerRepository) LatestOnOrBefore(ctx context.Context, agencyID string, t time.Time) (domain.LedgerEntry, bool, error) {
	const query = `
SELECT ` + ledgerColumns + `
FROM debt_ledger
WHERE agency_id = $1 AND event_date <= $2
ORDER BY event_date DESC, id DESC
LIMIT 1`

	return r.queryOne(ctx, query, agencyID, t)
}

func (r *LedgerRepository) Latest(ctx context.Context, agencyID string) (domain.LedgerEntry, bool, error) {
	const query = `
SELECT ` + ledgerColumns + `
FROM debt_ledger
WHERE agency_id = $1
ORDER BY event_date DESC, id DESC
LIMIT 1`

	return r.queryOne(ctx, query, agencyID)
}

func (r *LedgerRepository) EntriesInWindow(ctx context.Context, agencyID string, start, end time.Time) ([]domain.LedgerEntry, error) {
	const query = `
SELECT ` + ledgerColumns + `
FROM debt_ledger
WHERE agency_id = $1 AND event_date > $2 AND event_date <= $3
ORDER BY event_date, id`

	rows, err := r.db.QueryContext(ctx, query, agencyID, start, end)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "query ledger window", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindInternal, "query ledger window", err)
	}

	return entries, nil
}

func (r *LedgerRepository) DeleteByAgency(ctx context.Context, agencyID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM debt_ledger WHERE agency_id = $1`, agencyID); err != nil {
		return domain.Wrap(domain.KindInternal, "delete ledger entries", err)
	}
	return nil
}

func (r *LedgerRepository) queryOne(ctx context.Context, query string, args ...any) (domain.LedgerEntry, bool, error) {
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerEntry{}, false, nil
		}
		return domain.LedgerEntry{}, false, err
	}
	return entry, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	if err := row.Scan(
		&entry.ID,
		&entry.AgencyID,
		&entry.Kind,
		&entry.DocumentID,
		&entry.DocumentCode,
		&entry.EventDate,
		&entry.Change,
		&entry.DebtAfter,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerEntry{}, err
		}
		return domain.LedgerEntry{}, domain.Wrap(domain.KindInternal, "scan ledger entry", err)
	}
	return entry, nil
}
