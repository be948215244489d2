package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/auth"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/user"
	"github.com/xenking/fzokart/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
}

type options struct {
	databaseURL   string
	productsFile  string
	adminName     string
	adminEmail    string
	adminPassword string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&opts.adminName, "admin-name", "Fzokart Admin", "display name of the seeded admin")
	flag.StringVar(&opts.adminEmail, "admin-email", "", "email of the account to create and promote to ADMIN (or FZOKART_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&opts.adminPassword, "admin-password", "", "password for a newly created admin (or FZOKART_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.adminEmail == "" {
		opts.adminEmail = os.Getenv("FZOKART_SEED_ADMIN_EMAIL")
	}
	if opts.adminPassword == "" {
		opts.adminPassword = os.Getenv("FZOKART_SEED_ADMIN_PASSWORD")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if opts.databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		if err := run(ctx, lg, opts); err != nil {
			return errors.Wrap(err, "seed")
		}
		lg.Info("Seed completed successfully")
		return nil
	})
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, lg, postgres.NewProductRepository(pool), opts.productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if opts.adminEmail == "" {
		lg.Info("No admin email given, skipping admin seeding")
		return nil
	}
	if err := seedAdmin(ctx, lg, postgres.NewUserRepository(pool), opts); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	return nil
}

type productUpserter interface {
	Upsert(ctx context.Context, p *product.Product) error
}

func seedProducts(ctx context.Context, lg *zap.Logger, repo productUpserter, productsFile string) error {
	lg.Info("Reading products file", zap.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	lg.Info("Upserting products", zap.Int("count", len(products)))

	for _, pj := range products {
		p := pj.toProduct()
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		lg.Info("Upserted product", zap.String("id", p.ID), zap.String("slug", p.Slug))
	}

	return nil
}

func (pj productJSON) toProduct() *product.Product {
	p := &product.Product{
		ID:          pj.ID,
		Title:       pj.Title,
		Slug:        pj.Slug,
		Description: pj.Description,
		Price:       pj.Price,
		Stock:       pj.Stock,
		Brand:       pj.Brand,
		Category:    pj.Category,
		Images:      pj.Images,
		IsActive:    true,
	}
	if p.Slug == "" {
		p.Slug = product.Slugify(p.Title)
	}
	if len(p.Images) > 0 {
		p.Thumbnail = p.Images[0]
	}
	return p
}

// seedAdmin registers the admin account when a password is given and the
// email is not taken yet, then grants it the ADMIN role.
func seedAdmin(ctx context.Context, lg *zap.Logger, users user.Repository, opts options) error {
	// Registration issues an access token that is discarded here, so the
	// signing key only has to be unpredictable.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return errors.Wrap(err, "generate signing key")
	}
	svc := user.NewService(users, auth.NewTokens(auth.TokenConfig{Secret: secret}), auth.DefaultCost)

	if opts.adminPassword != "" {
		_, err := svc.Register(ctx, user.RegisterRequest{
			Name:     opts.adminName,
			Email:    opts.adminEmail,
			Password: opts.adminPassword,
		})
		switch {
		case err == nil:
			lg.Info("Registered admin account", zap.String("email", opts.adminEmail))
		case errors.Is(err, user.ErrEmailTaken):
			lg.Info("Admin account already exists", zap.String("email", opts.adminEmail))
		default:
			return errors.Wrap(err, "register admin")
		}
	}

	u, err := svc.PromoteAdmin(ctx, opts.adminEmail)
	if err != nil {
		return errors.Wrap(err, "promote admin")
	}
	lg.Info("Promoted account", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return nil
}
