package main

import (
	bookinghandler "renta/internal/bookings/handler"
	bookingrepository "renta/internal/bookings/repository"
	bookingservice "renta/internal/bookings/service"
	bookingvalidator "renta/internal/bookings/validator"
	producthandler "renta/internal/products/handler"
	productrepository "renta/internal/products/repository"
	productservice "renta/internal/products/service"
	productvalidator "renta/internal/products/validator"
	"renta/pkg/app"
	"renta/pkg/config"
	"renta/pkg/kafka"
	kafka_config "renta/pkg/kafka/config"
)

const ServiceName = "rentals"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Rentals service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	products, bookings := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		producthandler.NewProductHandler(products, cfg.Log),
		bookinghandler.NewBookingHandler(bookings, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) (productservice.ProductService, bookingservice.BookingService) {
	productValidator := productvalidator.NewProductValidator(cfg.Log)
	productRepo := productrepository.NewMongoProductRepository(cfg)
	pricingRepo := productrepository.NewMongoPricingRepository(cfg)
	products := productservice.NewProductService(productRepo, pricingRepo, productValidator, cfg)

	bookingValidator := bookingvalidator.NewBookingValidator(cfg.Log)
	bookingRepo := bookingrepository.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepository.NewBookingLockRepository(cfg)
	bookings := bookingservice.NewBookingService(
		bookingRepo,
		lockRepo,
		products,
		bookingValidator,
		initEventPublisher(cfg),
		cfg,
	)

	cfg.Log.Info("Rental services initialized", "database", cfg.MongoDatabaseName)
	return products, bookings
}

// initEventPublisher wires the lifecycle event producer. Disabled Kafka
// yields a nil publisher, which the booking service treats as a no-op.
func initEventPublisher(cfg *config.Config) bookingservice.EventPublisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return nil
	}

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized",
		"topic", cfg.BookingEventsTopic,
		"dlq_topic", cfg.BookingEventsDLQ,
	)
	return producer
}
