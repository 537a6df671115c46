package repository

import (
	"context"
	"errors"
	"fmt"

	"matka/database"
	"matka/models"
	"matka/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, reference::text, user_id, type, amount, status, is_subadmin_transaction,
	reference_id, approver_id, remarks, approver_remarks, created_at, processed_at`

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.Reference,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.Status,
		&t.IsSubadminTransaction,
		&t.ReferenceID,
		&t.ApproverID,
		&t.Remarks,
		&t.ApproverRemarks,
		&t.CreatedAt,
		&t.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a transaction, assigning a reference when none is set
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.Reference == "" {
		txn.Reference = uuid.NewString()
	}

	query := `
		INSERT INTO transactions
		(reference, user_id, type, amount, status, is_subadmin_transaction, reference_id, approver_id, remarks, processed_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.Reference,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.Status,
		txn.IsSubadminTransaction,
		txn.ReferenceID,
		txn.ApproverID,
		txn.Remarks,
		txn.ProcessedAt,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create %s transaction for user %d: %w", txn.Type, txn.UserID, err)
	}
	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a transaction and locks the row
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransactionRepository) get(ctx context.Context, query string, id int64) (*models.Transaction, error) {
	txn, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return txn, nil
}

// Decide records an approval or rejection of a pending transaction
func (r *TransactionRepository) Decide(ctx context.Context, txn *models.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, approver_id = $3, approver_remarks = $4, processed_at = $5
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, txn.ID, txn.Status, txn.ApproverID, txn.ApproverRemarks, txn.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to decide transaction %d: %w", txn.ID, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, txn.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check transaction %d: %w", txn.ID, err)
	}
	if !exists {
		return service.ErrTransactionNotFound
	}
	return service.ErrNotPending
}

// List returns transactions matching the filter, newest first
func (r *TransactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var where whereClause
	if len(filter.UserIDs) > 0 {
		where.add("user_id = ANY(%s)", filter.UserIDs)
	}
	if filter.Type != nil {
		where.add("type = %s", *filter.Type)
	}
	if filter.Status != nil {
		where.add("status = %s", *filter.Status)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions ` + where.String() + ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += " " + where.limit(filter.Limit)
	}

	rows, err := r.q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*models.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}
