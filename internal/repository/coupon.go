package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coupon-manager/internal/domain/coupon"
)

const (
	defaultListLimit = 100

	createCouponSQL = `INSERT INTO coupons (name, type, details, active, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	getCouponByIDSQL = `SELECT id, name, type, details, active, created_at, expires_at
		FROM coupons WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	updateCouponSQL = `UPDATE coupons
		SET name = COALESCE($2, name),
		    active = COALESCE($3, active),
		    expires_at = COALESCE($4, expires_at)
		WHERE id = $1
		RETURNING id, name, type, details, active, created_at, expires_at`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Variant payloads are stored as JSONB in the details column.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a new coupon definition and fills in its assigned id and
// creation time.
func (r *CouponRepository) Create(ctx context.Context, def *coupon.Definition) error {
	details := coupon.EncodeDetails(def.Details)
	err := r.pool.QueryRow(ctx, createCouponSQL,
		def.Name, string(def.Type), details, def.Active, def.ExpiresAt,
	).Scan(&def.ID, &def.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", def.Name, err)
	}
	return nil
}

// GetByID returns a single coupon definition by its identifier.
// Returns coupon.ErrNotFound when no row matches.
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*coupon.Definition, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}

	def, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}
	return &def, nil
}

// List returns coupon definitions matching the filter, ordered by id. A zero
// limit falls back to a 100-row page; a negative limit returns every row.
func (r *CouponRepository) List(ctx context.Context, filter coupon.Filter) ([]coupon.Definition, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT id, name, type, details, active, created_at, expires_at FROM coupons`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY id"

	limit := filter.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Update applies a partial update and returns the updated definition.
// Returns coupon.ErrNotFound when no row matches.
func (r *CouponRepository) Update(ctx context.Context, id int64, params coupon.UpdateParams) (*coupon.Definition, error) {
	rows, err := r.pool.Query(ctx, updateCouponSQL, id, params.Name, params.Active, params.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("updating coupon %d: %w", id, err)
	}

	def, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("updating coupon %d: %w", id, err)
	}
	return &def, nil
}

// Delete removes a coupon definition. Returns coupon.ErrNotFound when no row
// matches.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Definition, error) {
	var (
		def       coupon.Definition
		typ       string
		details   []byte
		expiresAt *time.Time
	)
	if err := row.Scan(&def.ID, &def.Name, &typ, &details, &def.Active, &def.CreatedAt, &expiresAt); err != nil {
		return def, err
	}

	def.Type = coupon.Type(typ)
	def.ExpiresAt = expiresAt

	decoded, err := coupon.DecodeDetails(def.Type, details)
	if err != nil {
		return def, fmt.Errorf("decoding details for coupon %d: %w", def.ID, err)
	}
	def.Details = decoded
	return def, nil
}
