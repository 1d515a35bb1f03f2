package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gensavor/internal/domain"
	"gensavor/pkg/logger"
)

// publicIDAttempts bounds the collision re-roll loop. 32^8 codes make
// even one retry rare; hitting the bound means something is broken.
const publicIDAttempts = 5

const uniqueViolation = "23505"

// Store is the durable home of order records. Create and UpdateStatus
// are the only writes; orders are never deleted.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// wrapErr maps low-level database failures onto the domain taxonomy:
// row absence becomes ErrNotFound, everything else ErrUnavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}

const orderColumns = `id, public_id, customer_name, phone, email, type, address, notes,
       subtotal, tax, total, status, created_at, updated_at`

// Create persists a validated draft atomically: order row, line items
// and the initial status log entry in one transaction. The store
// assigns id, public code and creation timestamp; the caller must not
// assume the order exists unless this returns without error.
func (s *Store) Create(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin create", err)
	}
	defer tx.Rollback(ctx)

	order := &domain.Order{
		ID:           uuid.NewString(),
		CustomerName: draft.CustomerName,
		Phone:        draft.Phone,
		Email:        draft.Email,
		Type:         draft.Type,
		Address:      draft.Address,
		Notes:        draft.Notes,
		Items:        draft.Items,
		Subtotal:     draft.Subtotal,
		Tax:          draft.Tax,
		Total:        draft.Total,
		Status:       domain.StatusPending,
	}

	if err := s.insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, item.MenuItemID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return nil, wrapErr("insert order item", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, $3)
	`, order.ID, domain.StatusPending, "checkout")
	if err != nil {
		return nil, wrapErr("insert status log", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr("commit create", err)
	}
	return order, nil
}

// insertOrder writes the order row, re-rolling the public code on a
// unique violation.
func (s *Store) insertOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	for attempt := 0; attempt < publicIDAttempts; attempt++ {
		code, err := domain.NewPublicID()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (id, public_id, customer_name, phone, email, type,
			                    address, notes, subtotal, tax, total, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at
		`, order.ID, code, order.CustomerName, order.Phone, order.Email, order.Type,
			order.Address, order.Notes, order.Subtotal, order.Tax, order.Total,
			order.Status,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err == nil {
			order.PublicID = code
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			s.log.Action("public_id_collision").With("public_id", code).Warn("Public code collision, re-rolling")
			continue
		}
		return wrapErr("insert order", err)
	}
	return fmt.Errorf("insert order: exhausted public code attempts: %w", domain.ErrUnavailable)
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByPublicID resolves a customer-facing code, case-insensitively.
func (s *Store) GetByPublicID(ctx context.Context, code string) (*domain.Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE public_id = $1`,
		domain.NormalizePublicID(code))
}

// GetByPhone matches the exact phone string, most recent first. No
// normalization is applied; "818-555-0100" and "8185550100" are
// different keys.
func (s *Store) GetByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE phone = $1 ORDER BY created_at DESC`, phone)
}

// ListAll returns every order, newest first.
func (s *Store) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.list(ctx, `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`)
}

// UpdateStatus applies a validated transition with a conditional
// update keyed on the status it was validated against. When two staff
// clients race, the second conditional update matches zero rows and
// the transition is re-validated against the winner's status, so at
// most one write lands and no stale validation is ever applied.
func (s *Store) UpdateStatus(ctx context.Context, id string, next domain.Status, changedBy string) (*domain.Order, domain.Status, error) {
	for {
		current, err := s.currentStatus(ctx, id)
		if err != nil {
			return nil, "", err
		}
		if err := domain.ValidateTransition(current, next); err != nil {
			return nil, current, err
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, current, wrapErr("begin status update", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, updated_at = now()
			WHERE id = $1 AND status = $3
		`, id, next, current)
		if err != nil {
			tx.Rollback(ctx)
			return nil, current, wrapErr("update status", err)
		}
		if tag.RowsAffected() == 0 {
			// Lost the race; re-read and re-validate.
			tx.Rollback(ctx)
			continue
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_by)
			VALUES ($1, $2, $3)
		`, id, next, changedBy)
		if err != nil {
			tx.Rollback(ctx)
			return nil, current, wrapErr("insert status log", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, current, wrapErr("commit status update", err)
		}

		order, err := s.GetByID(ctx, id)
		return order, current, err
	}
}

func (s *Store) currentStatus(ctx context.Context, id string) (domain.Status, error) {
	var status domain.Status
	err := s.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return "", wrapErr("read status", err)
	}
	return status, nil
}

// StatusHistory returns the append-only status log, oldest first.
func (s *Store) StatusHistory(ctx context.Context, id string) ([]domain.StatusLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`, id)
	if err != nil {
		return nil, wrapErr("query status history", err)
	}
	defer rows.Close()

	var history []domain.StatusLogEntry
	for rows.Next() {
		var entry domain.StatusLogEntry
		if err := rows.Scan(&entry.Status, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return nil, wrapErr("scan status history", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var order domain.Order
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&order.ID, &order.PublicID, &order.CustomerName, &order.Phone, &order.Email,
		&order.Type, &order.Address, &order.Notes, &order.Subtotal, &order.Tax,
		&order.Total, &order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("query order", err)
	}
	if err := s.loadItems(ctx, []*domain.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("query orders", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		err := rows.Scan(
			&order.ID, &order.PublicID, &order.CustomerName, &order.Phone, &order.Email,
			&order.Type, &order.Address, &order.Notes, &order.Subtotal, &order.Tax,
			&order.Total, &order.Status, &order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, wrapErr("scan order", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate orders", err)
	}

	refs := make([]*domain.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := s.loadItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems attaches line items to the given orders in one query.
func (s *Store) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := s.pool.Query(ctx, `
		SELECT order_id, menu_item_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return wrapErr("query order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.LineItem
		if err := rows.Scan(&orderID, &item.MenuItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return wrapErr("scan order item", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
