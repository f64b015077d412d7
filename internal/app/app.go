package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alimikegami/quicart/config"
	"github.com/alimikegami/quicart/internal/controller"
	"github.com/alimikegami/quicart/internal/domain"
	rediscache "github.com/alimikegami/quicart/internal/infrastructure/cache/redis"
	circuitbreaker "github.com/alimikegami/quicart/internal/infrastructure/circuit-breaker"
	"github.com/alimikegami/quicart/internal/infrastructure/mailer"
	"github.com/alimikegami/quicart/internal/infrastructure/message-queue/kafka"
	paymentgateway "github.com/alimikegami/quicart/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/quicart/internal/infrastructure/tracing"
	localmiddleware "github.com/alimikegami/quicart/internal/middleware"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/internal/service"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
)

type App struct {
	DB        *mongo.Database
	Config    *config.Config
	Server    *echo.Echo
	Scheduler gocron.Scheduler

	stopConsumer context.CancelFunc
}

func (app *App) Start() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = logger

	traceProvider, err := tracing.InitTracing(app.Config.TracingConfig.CollectorHost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize tracing")
	}

	defer func() {
		if traceProvider == nil {
			return
		}
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown tracing")
		}
	}()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = repository.EnsureIndexes(indexCtx, app.DB)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}

	redisClient, err := rediscache.ConnectToRedis(app.Config.RedisConfig.Address, app.Config.RedisConfig.Password, app.Config.RedisConfig.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()

	kafkaProducer := kafka.CreateKafkaProducer(app.Config)
	defer kafkaProducer.Close()
	kafkaReader := kafka.CreateKafkaReader(app.Config)
	defer kafkaReader.Close()
	publisher := kafka.CreatePublisher(kafkaProducer)

	productRepo := repository.CreateProductRepository(app.DB)
	cartRepo := repository.CreateCartRepository(app.DB)
	favoriteRepo := repository.CreateFavoriteRepository(app.DB)
	orderRepo := repository.CreateOrderRepository(app.DB)
	intentRepo := repository.CreateCheckoutIntentRepository(app.DB)
	profileRepo := repository.CreateProfileRepository(app.DB)
	accountRepo := repository.CreateAccountRepository(app.DB)
	sessionRepo := repository.CreateSessionRepository(redisClient)
	txManager := repository.CreateTxManager(app.DB)

	catalogSvc := service.CreateCatalogService(productRepo, publisher, domain.DefaultTaxonomy())
	cartSvc := service.CreateCartService(cartRepo, productRepo)
	checkoutSvc := service.CreateCheckoutService(cartRepo, productRepo, orderRepo, intentRepo, txManager, app.paymentGateway(), publisher, app.Config.CheckoutConfig)
	favoritesSvc := service.CreateFavoritesService(favoriteRepo, productRepo)
	profileSvc := service.CreateProfileService(profileRepo, orderRepo)
	authSvc := service.CreateAuthService(accountRepo, profileRepo, sessionRepo, txManager, publisher, app.Config.JWTConfig)
	consumer := service.CreateEventConsumer(kafkaReader, mailer.CreateMailer(app.Config), profileRepo)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	app.stopConsumer = stopConsumer
	go consumer.ConsumeEvent(consumerCtx)

	app.Scheduler, err = app.scheduleCheckoutJobs(consumerCtx, checkoutSvc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule checkout jobs")
	}

	e := echo.New()
	e.HideBanner = true
	tracer := otel.Tracer(tracing.ServiceName)

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// span creation and naming
			ctx, span := tracer.Start(c.Request().Context(), fmt.Sprintf("[%s] %s", c.Request().Method, c.Path()))
			defer span.End()

			// add the context to the request
			req := c.Request()
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	})

	// Used empty string so that metrics are not prefixed with the service name making it easier to aggregate across services
	e.Use(echoprometheus.NewMiddleware(""))

	go func() {
		metrics := echo.New()
		metrics.HideBanner = true
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(fmt.Sprintf(":%s", app.Config.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}()

	e.Use(localmiddleware.Logger)

	g := e.Group("/api/v1")
	isLoggedIn := localmiddleware.IsLoggedIn(authSvc)

	controller.CreateAuthController(g, authSvc, isLoggedIn)
	controller.CreateCatalogController(g, catalogSvc, isLoggedIn)
	controller.CreateCartController(g, cartSvc, checkoutSvc, isLoggedIn)
	controller.CreateFavoritesController(g, favoritesSvc, isLoggedIn)
	controller.CreateProfileController(g, profileSvc, isLoggedIn)
	controller.CreateStreamController(g, catalogSvc, cartSvc, favoritesSvc, profileSvc, isLoggedIn)

	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, "Hello, World!", nil)
	})

	app.Server = e

	if err := e.Start(fmt.Sprintf(":%s", app.Config.ServicePort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}

func (app *App) paymentGateway() paymentgateway.PaymentGateway {
	if app.Config.PaymentConfig.Driver == config.PaymentDriverMidtrans {
		return paymentgateway.CreateMidtransClient(app.Config)
	}

	cb := circuitbreaker.CreateCircuitBreaker("payment-gateway")
	return paymentgateway.CreateIntentClient(app.Config.PaymentConfig.APIHost, cb)
}

// scheduleCheckoutJobs applies confirmed checkouts that failed on the request
// path and expires intents that were never confirmed.
func (app *App) scheduleCheckoutJobs(ctx context.Context, checkoutSvc service.CheckoutService) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(app.Config.CheckoutConfig.ApplyInterval),
		gocron.NewTask(func() {
			if err := checkoutSvc.ApplyConfirmedCheckouts(ctx); err != nil {
				log.Error().Err(err).Str("component", "ApplyConfirmedCheckouts").Msg("")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(app.Config.CheckoutConfig.ApplyInterval),
		gocron.NewTask(func() {
			if err := checkoutSvc.ExpireStaleCheckouts(ctx); err != nil {
				log.Error().Err(err).Str("component", "ExpireStaleCheckouts").Msg("")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	s.Start()

	return s, nil
}

func (app *App) StopServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.stopConsumer != nil {
		app.stopConsumer()
	}

	if app.Scheduler != nil {
		if err := app.Scheduler.Shutdown(); err != nil {
			log.Error().Err(err).Str("component", "StopServer").Msg("")
		}
	}

	if app.Server == nil {
		return nil
	}

	return app.Server.Shutdown(ctx)
}
