package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/natours/internal/query"
	"github.com/aryan0dhankhar/natours/internal/repository"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/service"
	"github.com/aryan0dhankhar/natours/pkg/config"
	"github.com/aryan0dhankhar/natours/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" {
		printUsage()
		return
	}

	config.LoadDotEnv("config.env", ".env")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()
	pool, err := database.NewConnectionPool(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := repository.Migrate(ctx, pool.GetDB()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}
	app := newApp(pool, cfg, log)

	switch command {
	case "import":
		err = app.importData(ctx, args)
	case "delete":
		err = app.deleteData(ctx)
	case "create-admin":
		err = app.createAdmin(ctx, args)
	case "tours":
		err = app.listTours(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	pool    *database.ConnectionPool
	tours   *repository.TourStore
	reviews *repository.ReviewStore
	users   *repository.PostgresUserRepository
	ratings *service.RatingAggregator
	cost    int
}

func newApp(pool *database.ConnectionPool, cfg *config.Config, log *slog.Logger) *app {
	tourStore := repository.NewTourStore(pool.Gorm(), log)
	tourRepo := repository.NewPostgresTourRepository(pool.GetDB(), tourStore, log)
	return &app{
		pool:    pool,
		tours:   tourStore,
		reviews: repository.NewReviewStore(pool.Gorm(), log),
		users:   repository.NewPostgresUserRepository(pool.GetDB(), log),
		ratings: service.NewRatingAggregator(repository.NewPostgresReviewRepository(pool.GetDB()), tourRepo, nil, log),
		cost:    cfg.BcryptCost,
	}
}

// seedUser is a users.json record. Passwords are plain text in the seed
// files and hashed on import.
type seedUser struct {
	domain.User
	Password string `json:"password"`
}

// importData loads tours.json, users.json and reviews.json from a directory
// and recomputes every imported tour's rating.
func (a *app) importData(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dir := fs.String("dir", "dev-data", "directory holding tours.json, users.json and reviews.json")
	_ = fs.Parse(args)

	var tours []domain.Tour
	var users []seedUser
	var reviews []domain.Review
	for name, dst := range map[string]any{"tours.json": &tours, "users.json": &users, "reviews.json": &reviews} {
		if err := readJSON(filepath.Join(*dir, name), dst); err != nil {
			return err
		}
	}

	for i := range tours {
		t := &tours[i]
		t.Slug = slug.Make(t.Name)
		if err := a.tours.Create(ctx, t); err != nil {
			return fmt.Errorf("tour %q: %w", t.Name, err)
		}
	}
	for i := range users {
		u := &users[i].User
		hash, err := auth.HashPassword(users[i].Password, a.cost)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Email, err)
		}
		u.PasswordHash = hash
		if err := a.users.Create(ctx, u); err != nil {
			return fmt.Errorf("user %q: %w", u.Email, err)
		}
	}

	touched := map[uuid.UUID]bool{}
	for i := range reviews {
		r := &reviews[i]
		if err := a.reviews.Create(ctx, r); err != nil {
			return fmt.Errorf("review %d: %w", i, err)
		}
		touched[r.TourID] = true
	}
	for tourID := range touched {
		if err := a.ratings.Recompute(ctx, tourID); err != nil {
			return err
		}
	}

	fmt.Printf("Data successfully loaded: %d tours, %d users, %d reviews\n", len(tours), len(users), len(reviews))
	return nil
}

// deleteData empties every table.
func (a *app) deleteData(ctx context.Context) error {
	if _, err := a.pool.GetDB().ExecContext(ctx, `TRUNCATE bookings, reviews, tours, users`); err != nil {
		return err
	}
	fmt.Println("Data successfully deleted!")
	return nil
}

func (a *app) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	name := fs.String("name", "Admin", "display name")
	password := fs.String("password", "", "password (min 8 characters)")
	_ = fs.Parse(args)

	if *email == "" || len(*password) < 8 {
		fs.PrintDefaults()
		return fmt.Errorf("email and a password of at least 8 characters are required")
	}
	hash, err := auth.HashPassword(*password, a.cost)
	if err != nil {
		return err
	}
	u := &domain.User{Name: *name, Email: *email, Role: domain.RoleAdmin, PasswordHash: hash}
	if err := a.users.Create(ctx, u); err != nil {
		return err
	}
	fmt.Printf("Admin created: %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *app) listTours(ctx context.Context) error {
	q, err := query.Build(nil, query.Options{})
	if err != nil {
		return err
	}
	q.Limit = 1000
	tours, err := a.tours.Find(ctx, nil, q)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDIFFICULTY\tPRICE\tRATING\tCREATED")
	for _, t := range tours {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.1f (%d)\t%s\n",
			t.ID, t.Name, t.Difficulty, t.Price, t.RatingsAverage, t.RatingsQuantity, t.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`natours-cli - development data tool

Usage:
  natours-cli <command> [flags]

Commands:
  import         Load tours, users and reviews from JSON seed files
  delete         Delete all data
  create-admin   Create an administrator account
  tours          List tours
  help           Show this help

Examples:
  natours-cli import -dir ./dev-data
  natours-cli create-admin -email admin@natours.io -password secret123`)
}
