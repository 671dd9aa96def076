// Command seed-db populates the database with the initial product catalog and
// an admin account for the sales report.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/andiko/storefront/internal/domain/product"
	"github.com/andiko/storefront/internal/domain/user"
	"github.com/andiko/storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL   string
		pepper        string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pepper, "password-pepper", "", "HMAC pepper for password hashing (or STOREFRONT_PASSWORD_PEPPER env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@andikochips.com", "admin account email")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password; empty skips admin seeding")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("STOREFRONT_PASSWORD_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, pepper, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pepper, adminEmail, adminPassword string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool)); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if adminPassword != "" {
		if pepper == "" {
			return errors.New("password pepper is required to seed the admin account")
		}
		if err := seedAdmin(ctx, postgres.NewUserRepository(pool), pepper, adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository) error {
	d := decimal.RequireFromString

	products := []product.Product{
		{ID: "1", Name: "Frituras 15gr", Price: d("3.00"), Description: "Chips andinos, bolsa personal", Image: "frituras-15.jpg"},
		{ID: "2", Name: "Frituras 30gr", Price: d("5.50"), Description: "Chips andinos, bolsa mediana", Image: "frituras-30.jpg"},
		{ID: "3", Name: "Frituras 50gr", Price: d("8.00"), Description: "Chips andinos, bolsa familiar", Image: "frituras-50.jpg"},
		{ID: "4", Name: "Combo", Price: d("20.00"), Description: "Surtido de frituras", Image: "combo.jpg"},
	}

	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}
	return nil
}

func seedAdmin(ctx context.Context, repo *postgres.UserRepository, pepper, email, password string) error {
	svc := user.NewService(repo, []byte(pepper), email)

	u, err := svc.Register(ctx, user.Profile{
		Name:     "Administrador",
		Email:    email,
		Password: password,
		Address:  "Oficina central",
	})
	if errors.Is(err, user.ErrEmailTaken) {
		slog.Info("admin already registered", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("created admin account", slog.String("id", u.ID), slog.String("email", u.Email))
	return nil
}
