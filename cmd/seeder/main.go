package main

import (
	"context"
	"flag"
	"log"

	"github.com/sangkips/mini-crm/internal/application/service"
	"github.com/sangkips/mini-crm/internal/config"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"github.com/sangkips/mini-crm/internal/infrastructure/logger"
	"github.com/sangkips/mini-crm/internal/infrastructure/repository"
	"github.com/sangkips/mini-crm/pkg/apperror"
	"go.uber.org/zap"
)

type demoCustomer struct {
	name  string
	email string
	phone string
}

var demoCustomers = []demoCustomer{
	{"Ján Novák", "jan.novak@example.sk", "+421 901 234 567"},
	{"Mária Kováčová", "maria.kovacova@example.sk", "+421 902 345 678"},
	{"Peter Horváth", "peter.horvath@example.sk", ""},
	{"Zuzana Vargová", "zuzana.vargova@example.sk", "+421 903 456 789"},
	{"Martin Tóth", "martin.toth@example.sk", ""},
	{"Eva Baláž", "eva.balaz@example.sk", "+421 904 567 890"},
	{"Tomáš Szabó", "tomas.szabo@example.sk", "+421 905 678 901"},
	{"Lucia Molnárová", "lucia.molnarova@example.sk", ""},
	{"Michal Nagy", "michal.nagy@example.sk", "+421 906 789 012"},
	{"Katarína Lukáčová", "katarina.lukacova@example.sk", "+421 907 890 123"},
	{"Jozef Kováč", "jozef.kovac@example.sk", ""},
	{"Andrea Šimková", "andrea.simkova@example.sk", "+421 908 901 234"},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "validate the demo data without writing it")
	flag.Parse()

	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	provider := database.NewProvider(&cfg.Database, zapLogger)
	defer provider.Reset()

	svc := service.NewCustomerService(repository.NewCustomerRepository(provider), zapLogger)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, c := range demoCustomers {
		input := service.CustomerInput{Name: c.name, Email: c.email}
		if c.phone != "" {
			phone := c.phone
			input.Phone = &phone
		}

		if *dryRun {
			if _, err := svc.ValidateCustomerInput(input); err != nil {
				zapLogger.Fatal("Invalid demo customer", zap.String("email", c.email), zap.Error(err))
			}
			continue
		}

		id, err := svc.Create(ctx, input)
		switch {
		case apperror.IsKind(err, apperror.KindDuplicateEmail):
			skipped++
		case err != nil:
			zapLogger.Fatal("Failed to seed customer", zap.String("email", c.email), zap.Error(err))
		default:
			created++
			zapLogger.Debug("Seeded customer", zap.Uint64("customer_id", id))
		}
	}

	zapLogger.Info("Seeding finished",
		zap.Int("created", created),
		zap.Int("skipped", skipped),
		zap.Bool("dry_run", *dryRun),
	)
}
