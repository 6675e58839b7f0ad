package main

import (
	"roombook/internal/bookings/handler"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/service"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/events"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetHotel()

	cfg.Log.Info("Starting Bookings service")

	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaBookingsTopic, ServiceName, cfg.Log)
	if err != nil {
		// The saga does not depend on Kafka; run without lifecycle events
		// rather than refusing to start.
		cfg.Log.Warn("Kafka producer unavailable, booking events disabled", "error", err)
		producer = nil
	}

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	var publisher events.Publisher
	if producer != nil {
		publisher = producer
	}
	bookingService := service.NewBookingService(bookingRepo, cfg.Client.Hotel, publisher, cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	if producer != nil {
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		})
	}
	serverApp.Run()
}
