package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ripac/ripac/internal/config"
	"github.com/ripac/ripac/internal/domain/account"
	"github.com/ripac/ripac/internal/domain/audit"
	"github.com/ripac/ripac/internal/domain/external"
	"github.com/ripac/ripac/internal/domain/org"
	"github.com/ripac/ripac/internal/domain/registry"
	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/internal/platform/db"
	"github.com/ripac/ripac/internal/platform/hospital"
	"github.com/ripac/ripac/internal/platform/middleware"
	"github.com/ripac/ripac/internal/platform/sso"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripac-server",
		Short: "Patient registration and hospital integration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the superadmin user and demo organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool, password)
		},
	}
	cmd.Flags().String("password", "admin123", "Initial superadmin password")
	return cmd
}

// runSeed is idempotent: existing rows are kept as-is, missing ones created.
func runSeed(ctx context.Context, pool *pgxpool.Pool, password string) error {
	orgs := org.NewRepo(pool)
	members := org.NewMembershipRepo(pool)
	users := account.NewRepo(pool)

	seedOrgs := []*org.Organization{
		{
			Name:        "RSIA",
			Slug:        "rsia",
			Description: "RSIA Hospital",
			Settings: org.Settings{
				Timezone: "Asia/Makassar",
				HospitalAPI: &org.HospitalAPISettings{
					Enabled: true,
					BaseURL: "http://10.10.10.99:3020/api",
				},
			},
			IsActive: true,
		},
		{
			Name:        "BROS",
			Slug:        "bros",
			Description: "BROS Medical Center",
			Address:     "Jl. Letda Tantular No. 6 Denpasar, Bali",
			Settings: org.Settings{
				Timezone: "Asia/Makassar",
				HospitalAPI: &org.HospitalAPISettings{
					Enabled: true,
					BaseURL: "http://10.100.10.100:3020/api",
				},
			},
			IsActive: true,
		},
	}

	for i, o := range seedOrgs {
		existing, err := orgs.GetBySlug(ctx, o.Slug)
		switch {
		case err == nil:
			seedOrgs[i] = existing
		case errors.Is(err, org.ErrNotFound):
			if err := orgs.Create(ctx, o); err != nil {
				return fmt.Errorf("create organization %s: %w", o.Slug, err)
			}
			fmt.Printf("Created organization %s\n", o.Slug)
		default:
			return err
		}
	}

	const adminEmail = "admin@ripac.local"

	admin, err := users.GetByEmail(ctx, adminEmail)
	switch {
	case errors.Is(err, account.ErrNotFound):
		hash := account.HashPassword(password)
		now := time.Now()
		admin = &account.User{
			Email:           adminEmail,
			Name:            "Super Admin",
			PasswordHash:    &hash,
			IsSuperadmin:    true,
			IsActive:        true,
			EmailVerifiedAt: &now,
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		fmt.Printf("Created superadmin %s\n", adminEmail)
	case err != nil:
		return err
	}

	for _, o := range seedOrgs {
		_, err := members.Get(ctx, admin.ID, o.ID)
		switch {
		case err == nil:
			continue
		case errors.Is(err, org.ErrNotFound):
			m := &org.Membership{
				UserID:         admin.ID,
				OrganizationID: o.ID,
				Role:           org.RoleOwner,
			}
			if err := members.Add(ctx, m); err != nil {
				return fmt.Errorf("add membership for %s: %w", o.Slug, err)
			}
			fmt.Printf("Added %s membership to %s\n", admin.Email, o.Slug)
		default:
			return err
		}
	}

	fmt.Println("Seed complete.")
	return nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		// Development only; Validate rejects an empty secret in production.
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		sessionSecret = hex.EncodeToString(buf)
		logger.Warn().Msg("SESSION_SECRET not set, generated an ephemeral one; sessions will not survive restarts")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories
	userRepo := account.NewRepo(pool)
	orgRepo := org.NewRepo(pool)
	membershipRepo := org.NewMembershipRepo(pool)
	doctorRepo := registry.NewDoctorRepo(pool)
	patientRepo := registry.NewPatientRepo(pool)
	auditRepo := audit.NewRepo(pool)

	// Services
	recorder := audit.NewRecorder(auditRepo)
	accountSvc := account.NewService(userRepo, orgRepo, membershipRepo)
	orgSvc := org.NewService(orgRepo, membershipRepo)
	registrySvc := registry.NewService(doctorRepo, patientRepo)
	externalSvc := external.NewService(orgRepo, doctorRepo, patientRepo,
		hospital.NewMemoryTokenCache(),
		cfg.HospitalAPIUsername, cfg.HospitalAPIPassword, cfg.HospitalAPITimeout())

	codec := auth.NewSessionCodec([]byte(sessionSecret), auth.DefaultSessionTTL)
	authenticator := sso.NewAuthenticator(sso.Config{
		ClientID:     cfg.SSOClientID,
		ClientSecret: cfg.SSOClientSecret,
		IssuerURL:    cfg.SSOIssuerURL,
		RedirectURI:  cfg.SSORedirectURI,
	}, 10*time.Second)

	secureCookies := cfg.IsProduction() || cfg.TLSEnabled

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	e.GET("/health", db.HealthHandler(pool))

	// The session cookie gates everything except login and the SSO flow.
	api := e.Group("/api/v1")
	authed := api.Group("", auth.RequireSession(codec))
	orgScoped := authed.Group("", auth.RequireOrganization())
	admin := authed.Group("", auth.RequireSuperadmin())

	account.NewHandler(accountSvc, codec, authenticator, recorder, secureCookies, auth.DefaultSessionTTL).
		RegisterRoutes(api, authed)
	org.NewHandler(orgSvc).RegisterRoutes(admin)
	registry.NewHandler(registrySvc, recorder).RegisterRoutes(orgScoped)
	external.NewHandler(externalSvc, recorder).RegisterRoutes(orgScoped)
	audit.NewHandler(auditRepo).RegisterRoutes(orgScoped)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		var err error
		if cfg.TLSEnabled {
			logger.Info().Str("addr", addr).Msg("starting server with TLS")
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			logger.Info().Str("addr", addr).Msg("starting server")
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
