package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"marketplace-service/internal/clients"
	"marketplace-service/internal/config"
	"marketplace-service/internal/events"
	"marketplace-service/internal/handlers"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/payments"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/services"
	"marketplace-service/internal/subscribers"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Marketplace API
// @version 1.0.0
// @description Multi-tenant marketplace: staged seller product listings, storefront, cart and checkout

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)

	var storefrontCache *repository.StorefrontCache
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (storefront caching will be disabled)", err)
	} else {
		storefrontCache = repository.NewStorefrontCache(redisClient)
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	repo := repository.NewMarketplaceRepository(db)

	// Events are published only if NATS_URL is set. The services take an interface, so the
	// publisher is only handed over when it exists.
	var eventsPublisher *events.Publisher
	var publisher services.EventPublisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			publisher = eventsPublisher
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	approvalClient := clients.NewApprovalClient(cfg.ApprovalServiceURL)

	sellerService := services.NewSellerService(repo, logger)
	draftService := services.NewDraftService(repo, logger)
	publishService := services.NewPublishService(repo, publisher, approvalClient, storefrontCache, logger)
	catalogService := services.NewCatalogService(repo, storefrontCache, publisher, logger)
	cartService := services.NewCartService(repo, logger)

	var checkoutHandler *handlers.CheckoutHandler
	stripeProvider, err := payments.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Printf("WARNING: Payments disabled: %v", err)
	} else {
		checkoutService := services.NewCheckoutService(repo, stripeProvider, publisher, cfg.CheckoutConfig(), logger)
		checkoutHandler = handlers.NewCheckoutHandler(checkoutService, logger)
		log.Println("✓ Stripe payments initialized")
	}

	// Review decisions arrive from approval-service over NATS
	var approvalSubscriber *subscribers.ApprovalSubscriber
	if cfg.NATSURL != "" {
		approvalSubscriber, err = subscribers.NewApprovalSubscriber(cfg.NATSURL, catalogService, logger)
		if err != nil {
			log.Printf("WARNING: Failed to create approval subscriber: %v", err)
		} else if err := approvalSubscriber.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start approval subscriber: %v", err)
		} else {
			log.Println("✓ Approval subscriber started")
		}
	}

	sellerHandler := handlers.NewSellerHandler(sellerService, logger)
	draftHandler := handlers.NewDraftHandler(draftService, publishService, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	cartHandler := handlers.NewCartHandler(cartService, logger)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("marketplace-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("marketplace-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	metrics := gosharedmw.InitGlobalMetrics("tesseract", "marketplace_service")
	log.Println("✓ Prometheus metrics initialized")

	rbacMw := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("marketplace-service"))
	router.Use(gosharedmw.CompressionMiddleware())
	router.Use(middleware.CORS(cfg.CORSOrigins...))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")

	// In development: DevelopmentAuthMiddleware for local testing.
	// Otherwise IstioAuth reads x-jwt-claim-* headers from Istio, falling back to X-* headers
	// from auth-bff during migration.
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
		api.Use(middleware.TenantMiddleware())
	} else {
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: true,
			Logger:             logrus.NewEntry(logger).WithField("component", "istio_auth"),
		}))
		api.Use(middleware.TenantMiddleware())
		api.Use(gosharedmw.VendorScopeFilter())
	}

	{
		api.POST("/sellers", sellerHandler.RegisterSeller)
		api.GET("/sellers/me", sellerHandler.GetMe)
		api.POST("/sellers/:id/verify", rbacMw.RequirePermission(rbac.PermissionVendorsApprove), sellerHandler.VerifySeller)

		me := api.Group("/sellers/me")
		{
			me.GET("/drafts/active", draftHandler.GetActiveDraft)
			me.DELETE("/drafts/active", draftHandler.DiscardActiveDraft)
			me.POST("/drafts/identity", draftHandler.SetIdentity)
			me.POST("/drafts/variations", draftHandler.SetVariations)
			me.POST("/drafts/offer", draftHandler.SetOffer)
			me.POST("/drafts/offers", draftHandler.SetOffers)
			me.POST("/drafts/description", draftHandler.SetDescription)
			me.POST("/drafts/details", draftHandler.SetDetails)
			me.POST("/drafts/save", draftHandler.SaveDraft)
			me.POST("/drafts/publish", draftHandler.Publish)
			me.GET("/drafts", draftHandler.ListDrafts)
			me.GET("/drafts/:name", draftHandler.GetDraft)
			me.POST("/drafts/:name/load", draftHandler.LoadDraft)
			me.DELETE("/drafts/:name", draftHandler.DeleteDraft)

			me.GET("/offers/export", catalogHandler.ExportOffers)
			me.PUT("/offers/:id", catalogHandler.UpdateOffer)
		}

		// Review decisions made by staff outside the approval workflow
		api.PUT("/products/:id/status", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), catalogHandler.UpdateProductStatus)

		api.GET("/cart", cartHandler.GetCart)
		api.POST("/cart", cartHandler.AddItems)
		api.PUT("/cart", cartHandler.UpdateCount)
		api.DELETE("/cart", cartHandler.ClearCart)

		if checkoutHandler != nil {
			api.POST("/checkout", checkoutHandler.CreateCheckout)
			api.GET("/checkout/:id", checkoutHandler.GetCheckout)
		}
	}

	// Public storefront: tenant context only
	storefront := router.Group("/api/v1/storefront")
	storefront.Use(middleware.TenantMiddleware())
	{
		storefront.GET("/products", catalogHandler.ListProducts)
		storefront.GET("/products/:id", catalogHandler.GetProduct)
	}

	// Signed by Stripe; the tenant is resolved from the checkout row
	if checkoutHandler != nil {
		router.POST("/webhooks/stripe", checkoutHandler.HandleStripeWebhook)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Marketplace service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down marketplace-service...")

	if approvalSubscriber != nil {
		approvalSubscriber.Stop()
	}

	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Marketplace service stopped")
}
