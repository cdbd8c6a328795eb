package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/walletledger/backend/internal/models"
)

// HistoryService is the read side of the ledger. Every listing is scoped to
// one account; raw transactions only ever carry that account's entry.
type HistoryService struct {
	db *sql.DB
}

func NewHistoryService(db *sql.DB) *HistoryService {
	return &HistoryService{db: db}
}

const transactionProjection = `
	t.id, t.kind, t.status, t.amount, t.currency, t.fee, t.net_amount, t.description, t.created_at,
	e.id, e.wallet_id, e.account_id, e.amount, e.balance_before, e.balance_after, e.created_at`

// scopeFilter renders "<ownerColumn> = $1" plus an optional BETWEEN on timeColumn.
func scopeFilter(ownerColumn, timeColumn, accountID string, rng *DateRange) (string, []any) {
	clauses := []string{ownerColumn + " = $1"}
	args := []any{accountID}
	if rng != nil {
		clauses = append(clauses, timeColumn+" BETWEEN $2 AND $3")
		args = append(args, rng.From, rng.To)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func countQuery(ctx context.Context, db *sql.DB, query string, args []any) (int, error) {
	var total int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, classifyStoreError(err)
	}
	return total, nil
}

// ListTransactions pages through transactions the account took part in, newest first.
func (s *HistoryService) ListTransactions(ctx context.Context, accountID string, rng *DateRange, req PageRequest) (*models.Page[models.Transaction], error) {
	where, args := scopeFilter("e.account_id", "t.created_at", accountID, rng)

	count := func(ctx context.Context) (int, error) {
		return countQuery(ctx, s.db, `
			SELECT COUNT(*)
			FROM transactions t
			JOIN entries e ON e.transaction_id = t.id
			`+where, args)
	}

	fetch := func(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
		n := len(args)
		query := fmt.Sprintf(`
			SELECT %s
			FROM transactions t
			JOIN entries e ON e.transaction_id = t.id
			%s
			ORDER BY t.created_at DESC, t.id DESC
			LIMIT $%d OFFSET $%d`, transactionProjection, where, n+1, n+2)

		rows, err := s.db.QueryContext(ctx, query, append(append([]any{}, args...), limit, offset)...)
		if err != nil {
			return nil, classifyStoreError(err)
		}
		defer rows.Close()

		var transactions []models.Transaction
		for rows.Next() {
			t, err := scanScopedTransaction(rows)
			if err != nil {
				return nil, err
			}
			transactions = append(transactions, *t)
		}
		if err := rows.Err(); err != nil {
			return nil, classifyStoreError(err)
		}
		return transactions, nil
	}

	return Paginate(ctx, req, count, fetch)
}

// GetTransaction returns a transaction with the caller's entry. Transactions
// the caller has no entry in are reported as not found.
func (s *HistoryService) GetTransaction(ctx context.Context, transactionID, accountID string) (*models.Transaction, error) {
	if _, err := uuid.Parse(transactionID); err != nil {
		return nil, fmt.Errorf("%w: malformed transaction id", ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionProjection+`
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.id
		WHERE t.id = $1 AND e.account_id = $2`, transactionID, accountID)

	t, err := scanScopedTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScopedTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t    models.Transaction
		e    models.Entry
		kind string
		stat string
	)
	err := row.Scan(
		&t.ID, &kind, &stat, &t.Amount, &t.Currency, &t.Fee, &t.NetAmount, &t.Description, &t.CreatedAt,
		&e.ID, &e.WalletID, &e.AccountID, &e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, classifyStoreError(err)
	}

	t.Kind = models.TransactionKind(kind)
	t.Status = models.TransactionStatus(stat)
	e.TransactionID = t.ID
	t.Entries = []models.Entry{e}
	return &t, nil
}

func listableTable(kind models.TransactionKind) (movementTable, error) {
	if kind != models.KindTransfer && kind != models.KindDonation {
		return movementTable{}, fmt.Errorf("%w: cannot list %q movements", ErrInvalidInput, kind)
	}
	return movementTables[kind], nil
}

func movementProjection(table movementTable) string {
	return fmt.Sprintf(`
		SELECT m.id, m.amount, m.note, m.created_at,
			f.id, f.name, r.id, r.name,
			t.id, t.kind, t.status, t.created_at
		FROM %s m
		JOIN accounts f ON f.id = m.%s
		JOIN accounts r ON r.id = m.%s
		JOIN transactions t ON t.id = m.transaction_id`, table.name, table.fromCol, table.toCol)
}

// ListMovements pages through transfers sent or donations made by the account.
func (s *HistoryService) ListMovements(ctx context.Context, accountID string, kind models.TransactionKind, rng *DateRange, req PageRequest) (*models.Page[models.MovementDetail], error) {
	table, err := listableTable(kind)
	if err != nil {
		return nil, err
	}
	where, args := scopeFilter("m."+table.fromCol, "m.created_at", accountID, rng)

	count := func(ctx context.Context) (int, error) {
		return countQuery(ctx, s.db, `SELECT COUNT(*) FROM `+table.name+` m `+where, args)
	}

	fetch := func(ctx context.Context, limit, offset int) ([]models.MovementDetail, error) {
		n := len(args)
		query := fmt.Sprintf(`%s
			%s
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $%d OFFSET $%d`, movementProjection(table), where, n+1, n+2)

		rows, err := s.db.QueryContext(ctx, query, append(append([]any{}, args...), limit, offset)...)
		if err != nil {
			return nil, classifyStoreError(err)
		}
		defer rows.Close()

		var details []models.MovementDetail
		for rows.Next() {
			d, err := scanMovementDetail(rows)
			if err != nil {
				return nil, err
			}
			details = append(details, *d)
		}
		if err := rows.Err(); err != nil {
			return nil, classifyStoreError(err)
		}
		return details, nil
	}

	return Paginate(ctx, req, count, fetch)
}

// GetMovement returns one transfer or donation the account is a party to.
func (s *HistoryService) GetMovement(ctx context.Context, kind models.TransactionKind, id, accountID string) (*models.MovementDetail, error) {
	table, err := listableTable(kind)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: malformed %s id", ErrInvalidInput, strings.ToLower(string(kind)))
	}

	query := fmt.Sprintf(`%s
		WHERE m.id = $1 AND (m.%s = $2 OR m.%s = $2)`, movementProjection(table), table.fromCol, table.toCol)

	d, err := scanMovementDetail(s.db.QueryRowContext(ctx, query, id, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, strings.ToLower(string(kind)), id)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *HistoryService) GetTransfer(ctx context.Context, id, accountID string) (*models.MovementDetail, error) {
	return s.GetMovement(ctx, models.KindTransfer, id, accountID)
}

func (s *HistoryService) GetDonation(ctx context.Context, id, accountID string) (*models.MovementDetail, error) {
	return s.GetMovement(ctx, models.KindDonation, id, accountID)
}

func scanMovementDetail(row rowScanner) (*models.MovementDetail, error) {
	var (
		d    models.MovementDetail
		note sql.NullString
		kind string
		stat string
	)
	err := row.Scan(
		&d.ID, &d.Amount, &note, &d.CreatedAt,
		&d.From.ID, &d.From.Name, &d.To.ID, &d.To.Name,
		&d.Transaction.ID, &kind, &stat, &d.Transaction.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, classifyStoreError(err)
	}

	if note.Valid {
		d.Note = &note.String
	}
	d.Transaction.Kind = models.TransactionKind(kind)
	d.Transaction.Status = models.TransactionStatus(stat)
	return &d, nil
}
