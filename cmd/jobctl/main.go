package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"jobboard/internal/config"
	"jobboard/internal/database/migration"
	dbpostgres "jobboard/internal/database/postgres"
	"jobboard/internal/database/seeder"
	"jobboard/internal/domain/identity"
	"jobboard/internal/pkg/jwt"
	"jobboard/internal/repository"
	"jobboard/internal/usecase/applications"
	"jobboard/migrations"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const usage = `usage: jobctl <command> [flags]

commands:
  migrate     apply embedded migrations
  seed        insert demo jobs for a recruiter
  token       mint an access token for local testing
  reconcile   recompute a job's totalApplications`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)

	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(logger)
	case "seed":
		err = runSeed(os.Args[2:], logger)
	case "token":
		err = runToken(os.Args[2:])
	case "reconcile":
		err = runReconcile(os.Args[2:], logger)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func runMigrate(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return migration.Runner{FS: migrations.FS, Logger: logger}.Run(ctx, db.SQLDB())
}

func runSeed(args []string, logger *log.Logger) error {
	fset := flag.NewFlagSet("seed", flag.ExitOnError)
	recruiter := fset.String("recruiter", "", "recruiter user id")
	company := fset.String("company", "", "company id")
	days := fset.Int("deadline-days", 30, "days until the application deadline")
	_ = fset.Parse(args)

	recruiterID, err := uuid.Parse(strings.TrimSpace(*recruiter))
	if err != nil {
		return fmt.Errorf("invalid -recruiter: %w", err)
	}
	companyID, err := uuid.Parse(strings.TrimSpace(*company))
	if err != nil {
		return fmt.Errorf("invalid -company: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	r := seeder.Runner{
		Seeders: []seeder.Seeder{seeder.DemoJobsSeeder{
			RecruiterID: recruiterID,
			CompanyID:   companyID,
			Deadline:    time.Now().UTC().AddDate(0, 0, *days),
		}},
		Logger: logger,
	}
	return r.Run(ctx, db)
}

// runToken only needs the JWT settings, so it reads them directly instead of
// requiring the full server configuration.
func runToken(args []string) error {
	fset := flag.NewFlagSet("token", flag.ExitOnError)
	user := fset.String("user", "", "user id (random when empty)")
	role := fset.String("role", string(identity.RoleSeeker), "seeker, recruiter or admin")
	ttl := fset.Duration("ttl", time.Hour, "token lifetime")
	_ = fset.Parse(args)

	secret := strings.TrimSpace(os.Getenv("JWT_ACCESS_SECRET"))
	if secret == "" {
		return errors.New("JWT_ACCESS_SECRET is not set")
	}
	r, ok := identity.ParseRole(*role)
	if !ok {
		return fmt.Errorf("unknown role %q", *role)
	}

	userID := uuid.New()
	if s := strings.TrimSpace(*user); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
		userID = id
	}

	svc := jwt.NewHMACService(secret, strings.TrimSpace(os.Getenv("JWT_ISSUER")), *ttl)
	token, err := svc.GenerateAccessToken(userID, string(r))
	if err != nil {
		return err
	}
	fmt.Printf("user_id=%s role=%s\n%s\n", userID, r, token)
	return nil
}

func runReconcile(args []string, logger *log.Logger) error {
	fset := flag.NewFlagSet("reconcile", flag.ExitOnError)
	jobFlag := fset.String("job", "", "job id")
	_ = fset.Parse(args)

	jobID, err := uuid.Parse(strings.TrimSpace(*jobFlag))
	if err != nil {
		return fmt.Errorf("invalid -job: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := applications.NewService(repository.NewPostgresStore(db), nil, nil, applications.Options{}, logger)
	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}
	j, err := svc.ReconcileApplicantCount(ctx, admin, jobID)
	if err != nil {
		return err
	}
	logger.Printf("[Reconcile] job_id=%s total_applications=%d", j.ID, j.TotalApplications)
	return nil
}
