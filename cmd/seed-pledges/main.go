package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"pledgestats/internal/amqp"
	"pledgestats/internal/config"
	"pledgestats/internal/core"
	applog "pledgestats/internal/log"
	"pledgestats/internal/storage"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var states = map[string][]string{
	"Maharashtra":   {"Mumbai", "Pune", "Nagpur"},
	"Karnataka":     {"Bengaluru", "Mysuru", "Hubballi"},
	"Tamil Nadu":    {"Chennai", "Coimbatore", "Madurai"},
	"Delhi":         {"New Delhi", "North Delhi"},
	"West Bengal":   {"Kolkata", "Howrah"},
	"Gujarat":       {"Ahmedabad", "Surat"},
	"Uttar Pradesh": {"Lucknow", "Kanpur", "Varanasi"},
}

var (
	genders  = []string{"Male", "Female", "Other"}
	consents = []string{"Both Eyes", "Both Eyes", "Both Eyes", "Single Eye", "Cornea Only"}
	sources  = []string{"Online Form", "Online Form", "Donation Camp", "Hospital", "Partner Organisation"}
)

// seed-pledges fills the pledge store with synthetic records spread over the
// trailing months so every dashboard report has data to show during
// development.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("seed-pledges")

	count := flag.Int("count", 500, "number of pledges to insert")
	months := flag.Int("months", 24, "spread pledges over this many trailing months")
	publish := flag.Bool("publish", false, "publish a pledge-created event per insert (requires AMQP_URL)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open pledge store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var client *amqp.Client
	if *publish {
		if cfg.AMQPURL == "" {
			logger.Error("AMQP_URL is required with -publish")
			os.Exit(1)
		}
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
	}

	ctx := context.Background()
	now := time.Now()
	span := time.Duration(*months) * 30 * 24 * time.Hour

	stateNames := make([]string, 0, len(states))
	for name := range states {
		stateNames = append(stateNames, name)
	}

	inserted := 0
	for i := 0; i < *count; i++ {
		rec := randomPledge(now, span, stateNames)

		idStr, err := repo.Append(ctx, rec)
		if err != nil {
			logger.Error("Failed to insert pledge", "error", err, "reference", rec.ReferenceNumber)
			continue
		}
		inserted++

		if client != nil {
			id, _ := strconv.ParseInt(idStr, 10, 64)
			if err := client.PublishPledgeCreated(ctx, id, rec.ReferenceNumber); err != nil {
				logger.Error("Failed to publish event", "error", err, "reference", rec.ReferenceNumber)
			}
		}
	}

	logger.Info("Seeding complete", "inserted", inserted, "requested", *count)
}

func randomPledge(now time.Time, span time.Duration, stateNames []string) core.PledgeRecord {
	state := stateNames[rand.Intn(len(stateNames))]
	districts := states[state]

	createdAt := now.Add(-time.Duration(rand.Int63n(int64(span))))

	rec := core.PledgeRecord{
		ReferenceNumber: referenceNumber(),
		CreatedAt:       createdAt,
		State:           state,
		District:        districts[rand.Intn(len(districts))],
		Source:          sources[rand.Intn(len(sources))],
		ConsentType:     consents[rand.Intn(len(consents))],
		Gender:          genders[rand.Intn(len(genders))],
		Active:          true,
	}

	// Roughly one in ten donors leaves the birth date blank, mirroring real
	// intake data; the demographics report buckets those under Unknown.
	if rand.Intn(10) != 0 {
		age := 16 + rand.Intn(60)
		dob := now.AddDate(-age, 0, -rand.Intn(365))
		rec.DateOfBirth = core.BirthDate{Valid: true, Date: dob}
	}

	return rec
}

func referenceNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("NEB-%s", id[:12])
}
