package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/franciscosanchezn/pizza-order-api/docs" // Import generated docs
	"github.com/franciscosanchezn/pizza-order-api/internal/auth"
	"github.com/franciscosanchezn/pizza-order-api/internal/config"
	"github.com/franciscosanchezn/pizza-order-api/internal/controllers"
	"github.com/franciscosanchezn/pizza-order-api/internal/database"
	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/franciscosanchezn/pizza-order-api/internal/middleware"
	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/franciscosanchezn/pizza-order-api/internal/services"
	"github.com/gin-gonic/gin"
	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const tokenPurgeInterval = time.Hour

var (
	configuration *config.Config
	publisher     events.Publisher
	natsPublisher *events.NATSPublisher
	oauthService  *auth.OAuthService
	rateLimiter   *middleware.RateLimiter

	authController     *controllers.AuthController
	pizzaController    controllers.PizzaController
	menuController     *controllers.MenuController
	orderController    *controllers.OrderController
	discountController *controllers.DiscountController
	deliveryController *controllers.DeliveryController
	reportController   *controllers.ReportController
	clientController   *controllers.ClientController
)

// @title Pizza Order API
// @version 1.0
// @description Menu, ordering, delivery and loyalty backend for a pizza shop
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()
	log.SetLevel(configuration.ParseLogLevel())

	// Initialize database connection
	db := setupDatabase(configuration)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := events.SetupTracing(ctx, "pizza-order-api")
	checkPanicErr(err)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("Tracer provider shutdown failed")
		}
	}()

	// Event publishing goes to NATS when configured, to the log otherwise
	setupPublisher(configuration)
	defer publisher.Close()

	// Initialize services and controllers
	setupControllers(configuration, db)
	go purgeExpiredTokens(ctx, db)

	// Initialize Gin router
	router := setupRouter(db)

	server := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", configuration.Host, configuration.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment.
// LOG_LEVEL, once the configuration is loaded, takes over.
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database, migrates the schema and
// seeds the starter menu when asked to
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(conf.Database())
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))

	if conf.DBSeed {
		_, err := database.SeedMenu(db)
		checkPanicErr(err)
	}
	return db
}

func setupPublisher(conf *config.Config) {
	if conf.NATSURL == "" {
		publisher = events.NewLogPublisher(log.StandardLogger())
		return
	}
	nc, err := events.ConnectNATS(conf.NATSURL)
	if err != nil {
		log.WithError(err).Warn("NATS unavailable, events will only be logged")
		publisher = events.NewLogPublisher(log.StandardLogger())
		return
	}
	natsPublisher = events.NewNATSPublisher(nc, conf.NATSSubjectPrefix)
	publisher = natsPublisher
	log.WithField("nats_url", nc.ConnectedUrlRedacted()).Info("Publishing events to NATS")
}

func setupControllers(conf *config.Config, db *gorm.DB) {
	hasher := auth.NewPasswordHasher(conf.PasswordPepper)
	issuer := auth.NewTokenIssuer(conf.JWTSecret, conf.TokenTTL())
	oauthService = auth.NewOAuthService(db, conf.JWTSecret)
	rateLimiter = middleware.NewRateLimiter(conf.RateLimitRPS, conf.RateLimitBurst)

	userService := services.NewUserService(db, hasher)
	pizzaService := services.NewPizzaService(db, conf.DietaryPolicy())
	discountService := services.NewDiscountService(db, publisher)
	deliveryService := services.NewDeliveryService(db)

	authController = controllers.NewAuthController(userService, pizzaService, discountService, deliveryService, issuer)
	pizzaController = controllers.NewPizzaController(pizzaService)
	menuController = controllers.NewMenuController(services.NewMenuService(db))
	orderController = controllers.NewOrderController(services.NewOrderService(db, publisher))
	discountController = controllers.NewDiscountController(discountService)
	deliveryController = controllers.NewDeliveryController(deliveryService)
	reportController = controllers.NewReportController(services.NewReportService(db))
	clientController = controllers.NewClientController(services.NewClientService(db))
}

// purgeExpiredTokens drops stored OAuth2 access tokens once they expire
func purgeExpiredTokens(ctx context.Context, db *gorm.DB) {
	store := auth.NewGormTokenStore(db)
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			purged, err := store.PurgeExpired(ctx, now)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired tokens")
				continue
			}
			if purged > 0 {
				log.WithField("purged", purged).Info("Expired OAuth tokens purged")
			}
		}
	}
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter(db *gorm.DB) *gin.Engine {
	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.Tracing(events.TracerName))

	// Define routes
	setupRoutes(router, db)

	return router
}

func newHealthCheck(db *gorm.DB) *healthgo.Health {
	checks := []healthgo.Config{{
		Name:    "database",
		Timeout: 2 * time.Second,
		Check: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	}}
	if natsPublisher != nil {
		checks = append(checks, healthgo.Config{
			Name:      "nats",
			SkipOnErr: true,
			Check: func(ctx context.Context) error {
				if !natsPublisher.Connected() {
					return errors.New("NATS connection is not active")
				}
				return nil
			},
		})
	}
	health, err := healthgo.New(
		healthgo.WithComponent(healthgo.Component{Name: "pizza-order-api", Version: "1.0.0"}),
		healthgo.WithChecks(checks...),
	)
	checkPanicErr(err)
	return health
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine, db *gorm.DB) {
	// Health check endpoint
	router.GET("/health", gin.WrapH(newHealthCheck(db).Handler()))

	jwtSecret := []byte(configuration.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		// Authentication routes, rate limited per client IP
		authApi := v1.Group("/auth")
		authApi.Use(rateLimiter.Middleware())
		{
			authApi.POST("/signup", authController.Signup)
			authApi.POST("/login", authController.Login)
		}
		v1.POST("/oauth/token", rateLimiter.Middleware(), oauthService.HandleToken)

		publicApi := v1.Group("/public")
		{
			publicApi.GET("/pizzas", pizzaController.GetAllPizzas)
			publicApi.GET("/pizzas/:id", pizzaController.GetPizzaByID)
			publicApi.GET("/pizzas/:id/price", pizzaController.GetPizzaPrice)
			publicApi.GET("/pizzas/:id/ingredients", pizzaController.GetPizzaIngredients)
			publicApi.GET("/extras", menuController.ListExtras)
			publicApi.GET("/ingredients", menuController.ListIngredients)
			publicApi.GET("/delivery/persons/available", deliveryController.ListAvailable)
			publicApi.GET("/delivery/persons/random", deliveryController.Random)
			publicApi.GET("/discounts/:code", discountController.GetCode)
		}

		// Protected routes accept login tokens and OAuth2 access tokens
		protectedApi := v1.Group("/protected")
		protectedApi.Use(middleware.Authenticate(jwtSecret))
		{
			protectedApi.GET("/me", authController.Me)
			protectedApi.POST("/auth/refresh", authController.Refresh)
			protectedApi.GET("/dashboard", authController.Dashboard)
			protectedApi.GET("/pizzas", pizzaController.GetPizzasPage)
			protectedApi.POST("/orders", orderController.CreateOrder)
			protectedApi.GET("/orders", orderController.ListOrders)
			protectedApi.GET("/orders/:id", orderController.GetOrder)

			deliveryApi := protectedApi.Group("/delivery")
			deliveryApi.Use(middleware.RequireKind(models.KindDeliveryPerson))
			{
				deliveryApi.PUT("/status", deliveryController.SetStatus)
				deliveryApi.GET("/orders", deliveryController.AssignedOrders)
			}

			staffApi := protectedApi.Group("/staff")
			{
				// Delivery persons may move orders along and assign couriers
				staffApi.PATCH("/orders/:id", middleware.RequireStaff(), orderController.UpdateOrder)
				staffApi.POST("/orders/:id/assign", middleware.RequireStaff(), orderController.AssignDeliveryPerson)

				managementApi := staffApi.Group("")
				managementApi.Use(middleware.RequireKind(models.KindEmployee))
				{
					managementApi.POST("/pizzas", pizzaController.CreatePizza)
					managementApi.PUT("/pizzas/:id", pizzaController.UpdatePizza)
					managementApi.POST("/pizzas/:id/restock", pizzaController.RestockPizza)
					managementApi.DELETE("/pizzas/:id", pizzaController.DeletePizza)

					managementApi.POST("/ingredients", menuController.CreateIngredient)
					managementApi.PUT("/ingredients/:id", menuController.UpdateIngredient)
					managementApi.POST("/extras", menuController.CreateExtra)
					managementApi.PUT("/extras/:id", menuController.UpdateExtra)

					managementApi.POST("/discounts", discountController.CreateCode)
					managementApi.POST("/discounts/birthday-sweep", discountController.BirthdaySweep)
					managementApi.POST("/customers/:id/loyalty", discountController.AddLoyaltyPoints)

					managementApi.GET("/reports/earnings/gender", reportController.EarningsByGender)
					managementApi.GET("/reports/earnings/age-group", reportController.EarningsByAgeGroup)
					managementApi.GET("/reports/earnings/postal-code", reportController.EarningsByPostalCode)
					managementApi.GET("/reports/top-pizzas", reportController.TopPizzas)
					managementApi.GET("/reports/undelivered", reportController.UndeliveredOrders)

					managementApi.POST("/users", authController.CreateUser)

					managementApi.POST("/clients", clientController.CreateClient)
					managementApi.GET("/clients", clientController.ListClients)
					managementApi.DELETE("/clients/:id", clientController.DeleteClient)
				}
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
