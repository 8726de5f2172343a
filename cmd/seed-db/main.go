package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-manager/internal/domain/coupon"
	"github.com/xenking/coupon-manager/internal/repository"
)

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedCoupons(ctx, repository.NewCouponRepository(pool))
}

func seedCoupons(ctx context.Context, repo coupon.Repository) error {
	slog.Info("seeding demo coupons")

	maxCartDiscount := decimal.NewFromInt(50)

	coupons := []coupon.Definition{
		{
			Name: "10% off orders over 100",
			Type: coupon.TypeCartWise,
			Details: coupon.CartWiseDetails{
				Threshold:         decimal.NewFromInt(100),
				DiscountPercent:   decimal.NewFromInt(10),
				MaxDiscountAmount: &maxCartDiscount,
			},
			Active: true,
		},
		{
			Name: "20% off product 1 (buy 2+)",
			Type: coupon.TypeProductWise,
			Details: coupon.ProductWiseDetails{
				ProductID:       1,
				DiscountPercent: decimal.NewFromInt(20),
				MinQuantity:     2,
			},
			Active: true,
		},
		{
			Name: "Buy 2 of product 1, get 1 of product 2 free",
			Type: coupon.TypeBxGy,
			Details: coupon.BxGyDetails{
				BuyProducts:     []coupon.ProductQuantity{{ProductID: 1, Quantity: 2}},
				GetProducts:     []coupon.ProductQuantity{{ProductID: 2, Quantity: 1}},
				RepetitionLimit: 3,
			},
			Active: true,
		},
	}

	for i := range coupons {
		if err := repo.Create(ctx, &coupons[i]); err != nil {
			return errors.Wrapf(err, "create coupon %q", coupons[i].Name)
		}

		slog.Info("created coupon",
			slog.Int64("id", coupons[i].ID),
			slog.String("name", coupons[i].Name),
			slog.String("type", string(coupons[i].Type)),
		)
	}

	return nil
}
