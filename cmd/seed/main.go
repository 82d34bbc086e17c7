package main

import (
	"context"
	"flag"
	"log"
	"os"

	"tabnest/internal/config"
	"tabnest/internal/repository"
	"tabnest/internal/seed"
	authsvc "tabnest/internal/service/auth"
	tabservice "tabnest/internal/service/tabs"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed tab groups")
	clearData := flag.Bool("clear-data", false, "Delete all tab groups and tabs (keep schema)")
	owner := flag.String("owner", "", "Owner user id for seeded groups (defaults to DEV_USER_ID)")
	fixturePath := flag.String("fixture", "", "YAML fixture to load instead of the built-in sample")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production")
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ownerID, err := uuid.Parse(firstNonEmpty(*owner, cfg.DevUserID))
	if err != nil {
		log.Fatalf("Invalid owner id: %v", err)
	}

	ctx := context.Background()
	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.DBDriver, err)
	}
	defer backend.Close()

	logger.Info("seed starting",
		"environment", cfg.Environment,
		"driver", cfg.DBDriver,
		"table_prefix", cfg.TablePrefix,
	)

	if *dropTables {
		if err := backend.Schema.DropSchema(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := backend.Schema.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	if *clearData {
		if err := backend.Schema.ClearData(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("data cleared")
		return
	}

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	authorizer := authsvc.NewOwnerBasedAuthorizer(backend.Groups, backend.Tabs)
	seeder := seed.NewSeeder(
		tabservice.NewGroupService(backend.Groups, authorizer, logger),
		tabservice.NewTabService(backend.Tabs, backend.Groups, backend.TxManager, authorizer, logger),
		logger,
	)

	results, err := seeder.Seed(ctx, ownerID, fixture)
	if err != nil {
		log.Fatalf("Seeding failed after %d groups: %v", len(results), err)
	}

	total := 0
	for _, r := range results {
		total += r.Tabs
	}
	logger.Info("seeding complete", "owner_id", ownerID, "groups", len(results), "tabs", total)
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.DefaultFixture()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.ParseFixture(data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
