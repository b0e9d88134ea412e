package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/thartark/yogastudoapp-sub000/config"
	"github.com/thartark/yogastudoapp-sub000/internal/consumer"
	"github.com/thartark/yogastudoapp-sub000/internal/handler"
	"github.com/thartark/yogastudoapp-sub000/internal/middleware"
	"github.com/thartark/yogastudoapp-sub000/internal/repository"
	"github.com/thartark/yogastudoapp-sub000/internal/service"
	"github.com/thartark/yogastudoapp-sub000/pkg/database"
	"github.com/thartark/yogastudoapp-sub000/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Publisher: booking/waitlist state changes out to collaborators
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Consumer: scheduling actions in from the admin scheduler
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewScheduleConsumer(db).Start(msgs)

	// Repositories
	templateRepo := repository.NewTemplateRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	// Services
	bookingSvc := service.NewBookingService(bookingRepo, instanceRepo, waitlistRepo, creditRepo, publisher)
	scheduleSvc := service.NewScheduleService(templateRepo, instanceRepo, publisher)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "scheduling-core"})
	})

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	handler.NewScheduleHandler(scheduleSvc).RegisterRoutes(e)

	log.Printf("Scheduling Core starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
