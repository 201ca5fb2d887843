// Command birthday-sweep issues today's birthday discount codes once and
// exits. It is meant to be run by cron; running it twice on the same day
// issues twice.
package main

import (
	"context"
	"os"

	"github.com/franciscosanchezn/pizza-order-api/internal/config"
	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
	log.SetFormatter(&log.JSONFormatter{})

	conf, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	log.SetLevel(conf.ParseLogLevel())

	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.WithError(err).Fatal("Database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Schema migration failed")
	}

	var publisher events.Publisher = events.NewLogPublisher(log.StandardLogger())
	if conf.NATSURL != "" {
		nc, err := events.ConnectNATS(conf.NATSURL)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, events will only be logged")
		} else {
			publisher = events.NewNATSPublisher(nc, conf.NATSSubjectPrefix)
		}
	}
	defer publisher.Close()

	shutdownTracing, err := events.SetupTracing(context.Background(), "birthday-sweep")
	if err != nil {
		log.WithError(err).Fatal("Tracing setup failed")
	}

	ctx, span := otel.Tracer(events.TracerName).Start(context.Background(), "birthday sweep")
	codes, err := services.NewDiscountService(db, publisher).IssueBirthdayCodes(ctx)
	span.SetAttributes(attribute.Int("codes.issued", len(codes)))
	span.End()
	_ = shutdownTracing(context.Background())
	if err != nil {
		log.WithError(err).Error("Birthday sweep failed")
		publisher.Close()
		os.Exit(1)
	}
	log.WithField("issued", len(codes)).Info("Birthday sweep finished")
}
