package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/confdesk/conference-system/config"
	"github.com/confdesk/conference-system/db"
	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/utils"
)

type rosterEntry struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	AccessCode string   `json:"access_code"`
	Domains    []string `json:"domains"`
}

// seed-reviewers loads a JSON roster file and inserts each reviewer with a
// bcrypt-hashed access code. Entries that fail validation or insertion are
// reported and skipped.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	rosterPath := flag.String("roster", "reviewers.json", "path to the reviewer roster JSON file")
	flag.Parse()

	if err := run(*rosterPath, logger); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(rosterPath string, logger *slog.Logger) error {
	data, err := os.ReadFile(rosterPath)
	if err != nil {
		return fmt.Errorf("read roster file: %w", err)
	}

	var roster []rosterEntry
	if err := json.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("parse roster file: %w", err)
	}
	if len(roster) == 0 {
		return fmt.Errorf("roster file %s contains no reviewers", rosterPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer dbConn.Close()

	reviewerRepo := repositories.NewPostgresReviewerRepository(dbConn)

	ctx := context.Background()
	seeded := 0
	for _, entry := range roster {
		if entry.Name == "" || !utils.IsValidEmail(entry.Email) || entry.AccessCode == "" || len(entry.Domains) == 0 {
			logger.Warn("skipping invalid roster entry", slog.String("email", entry.Email))
			continue
		}

		hash, err := utils.HashAccessCode(entry.AccessCode)
		if err != nil {
			return fmt.Errorf("hash access code for %s: %w", entry.Email, err)
		}

		reviewer := &models.Reviewer{
			Name:           entry.Name,
			Email:          entry.Email,
			AccessCodeHash: hash,
			Domains:        entry.Domains,
		}
		if err := reviewerRepo.Create(ctx, reviewer); err != nil {
			logger.Warn("failed to insert reviewer",
				slog.String("email", entry.Email),
				slog.Any("error", err),
			)
			continue
		}

		logger.Info("reviewer seeded", slog.String("email", entry.Email), slog.Int("id", reviewer.ID))
		seeded++
	}

	logger.Info("seeding complete", slog.Int("seeded", seeded), slog.Int("total", len(roster)))
	return nil
}
