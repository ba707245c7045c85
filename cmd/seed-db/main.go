// Command seed-db applies the schema and loads sample products and clients.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/aexfood/orders/internal/domain/client"
	"github.com/aexfood/orders/internal/domain/product"
	"github.com/aexfood/orders/internal/storage/postgres"
)

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

type clientJSON struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		clientsFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&clientsFile, "clients-file", "db/seed/clients.json", "path to clients JSON file")
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

	if err := run(ctx, databaseURL, productsFile, clientsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, clientsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := product.NewService(postgres.NewProductRepository(pool), postgres.NewCategoryRepository(pool))
	if err := seedProducts(ctx, products, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedClients(ctx, postgres.NewClientRepository(pool), clientsFile); err != nil {
		return errors.Wrap(err, "seed clients")
	}

	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

// seedProducts fills an empty catalog. Products have no natural key, so a
// catalog that already has rows is left alone.
func seedProducts(ctx context.Context, svc *product.Service, path string) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("catalog not empty, skipping products", slog.Int("count", len(existing)))
		return nil
	}

	var products []productJSON
	if err := readJSON(path, &products); err != nil {
		return err
	}

	slog.Info("creating products", slog.Int("count", len(products)))

	for _, p := range products {
		created, err := svc.Create(ctx, product.CreateRequest{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
		})
		if err != nil {
			return errors.Wrapf(err, "create product %q", p.Name)
		}

		slog.Info("created product", slog.Int64("id", created.ID), slog.String("name", created.Name))
	}

	return nil
}

func seedClients(ctx context.Context, repo *postgres.ClientRepository, path string) error {
	var clients []clientJSON
	if err := readJSON(path, &clients); err != nil {
		return err
	}

	slog.Info("upserting clients", slog.Int("count", len(clients)))

	for _, c := range clients {
		stored := &client.Client{Name: c.Name, Phone: c.Phone}
		if err := client.Validate(stored); err != nil {
			return errors.Wrapf(err, "client %q", c.Phone)
		}
		inserted, err := repo.Upsert(ctx, stored)
		if err != nil {
			return errors.Wrapf(err, "upsert client %q", c.Phone)
		}

		slog.Info("upserted client",
			slog.Int64("id", stored.ID),
			slog.String("phone", stored.Phone),
			slog.Bool("inserted", inserted),
		)
	}

	return nil
}
