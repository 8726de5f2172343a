package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-manager/internal/domain/coupon"
)

const recordApplicationSQL = `INSERT INTO coupon_applications (coupon_id, discount) VALUES ($1, $2)`

var _ coupon.ApplicationRecorder = (*ApplicationRepository)(nil)

// ApplicationRepository persists audit rows for applied coupons.
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository returns an ApplicationRepository that uses the
// given pool.
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

// Record inserts one audit row for a successful coupon application.
func (r *ApplicationRepository) Record(ctx context.Context, couponID int64, discount decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, recordApplicationSQL, couponID, discount)
	if err != nil {
		return fmt.Errorf("recording application of coupon %d: %w", couponID, err)
	}
	return nil
}
