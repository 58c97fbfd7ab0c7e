package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ticket-marketplace/config"
	"ticket-marketplace/handlers"
	"ticket-marketplace/internal/services/payment"
	"ticket-marketplace/internal/services/payment/paystack"
	"ticket-marketplace/internal/services/payment/stripepay"
	_ "ticket-marketplace/migrations"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/security"
	"ticket-marketplace/services"
	"ticket-marketplace/utils"

	"github.com/joho/godotenv"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId("ticket-marketplace-server"))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pn = pubnub.NewPubNub(pnConfig)
	}

	// Initialize payment providers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := payment.NewRegistry(payment.NewFactory())
	if cfg.StripePaySecretKey != "" {
		err := registry.Register(ctx, payment.ProviderStripePay, &stripepay.Config{
			BaseURL:    cfg.StripePayBaseURL,
			SecretKey:  cfg.StripePaySecretKey,
			WebhookKey: cfg.StripePayWebhookKey,
		})
		if err != nil {
			log.Fatalf("Failed to register stripepay: %v", err)
		}
	}
	if cfg.PaystackSecretKey != "" {
		err := registry.Register(ctx, payment.ProviderPaystack, &paystack.Config{
			BaseURL:   cfg.PaystackBaseURL,
			SecretKey: cfg.PaystackSecretKey,
		})
		if err != nil {
			log.Fatalf("Failed to register paystack: %v", err)
		}
	}

	// Initialize monitoring
	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor()
	}

	// Initialize services
	scheduler := services.NewScheduler(redisClient, cfg.SchedulerPollRate)
	waitlistService := services.NewWaitlistService(app, redisClient, pn, cfg, scheduler, monitor)
	expiryService := services.NewExpiryService(app, waitlistService, cfg, monitor)
	scheduler.SetHandler(expiryService.HandleOfferExpiry)

	availabilityService := services.NewAvailabilityService(app)
	ticketService := services.NewTicketService(app, cfg.QRSecret, monitor)
	emailService := services.NewEmailService(app, ticketService)
	purchaseService := services.NewPurchaseService(app, waitlistService, emailService, pn, monitor)
	checkoutService := services.NewCheckoutService(app, registry, cfg)
	eventService := services.NewEventService(app, registry, waitlistService)

	// Initialize handlers
	waitlistHandler := handlers.NewWaitlistHandler(app, waitlistService, availabilityService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewWebhookHandler(registry, checkoutService, purchaseService, monitor)
	ticketHandler := handlers.NewTicketHandler(ticketService, security.NewScannerLimiter())
	eventHandler := handlers.NewEventHandler(app, eventService)
	sellerHandler := handlers.NewSellerHandler(app, registry)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Redundant expiry trigger: the sweep catches offers whose scheduled
	// callback was lost.
	app.Cron().MustAdd("offerSweep", "* * * * *", func() {
		expiryService.SweepExpiredOffers(context.Background())
	})
	app.Cron().MustAdd("staleCleanup", "0 * * * *", func() {
		expiryService.CleanupStaleData(context.Background())
	})

	// Start background workers
	scheduler.Start(ctx)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		scheduler.Stop()
		registry.Close(context.Background())
		return e.Next()
	})

	// Register routes
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Waitlist endpoints
		se.Router.POST("/api/waitlist/join", waitlistHandler.JoinWaitlist)
		se.Router.POST("/api/waitlist/leave", waitlistHandler.LeaveWaitlist)
		se.Router.GET("/api/waitlist/{eventId}/position", waitlistHandler.GetQueuePosition)
		se.Router.GET("/api/events/{eventId}/availability", waitlistHandler.GetAvailability)

		// Event endpoints
		se.Router.POST("/api/events", eventHandler.CreateEvent)
		se.Router.PATCH("/api/events/{eventId}", eventHandler.UpdateEvent)
		se.Router.POST("/api/events/{eventId}/cancel", eventHandler.CancelEvent)
		se.Router.POST("/api/events/{eventId}/refund", eventHandler.RefundEvent)

		// Checkout endpoints
		se.Router.POST("/api/checkout/session", checkoutHandler.CreateCheckoutSession)

		// Webhook endpoints (one per provider, no auth)
		se.Router.POST("/api/webhooks/stripepay", webhookHandler.HandleStripePayWebhook)
		se.Router.POST("/api/webhooks/paystack", webhookHandler.HandlePaystackWebhook)

		// Ticket endpoints
		se.Router.GET("/api/tickets", ticketHandler.GetUserTickets)
		se.Router.POST("/api/tickets/consume", ticketHandler.ConsumeTicket)
		se.Router.GET("/api/tickets/{ticketId}/print", ticketHandler.PrintTicket)
		se.Router.GET("/api/events/{eventId}/scanner-tickets", ticketHandler.GetScannerTickets)

		// Seller onboarding endpoints
		se.Router.POST("/api/sellers/account", sellerHandler.CreateAccount)
		se.Router.POST("/api/sellers/account/complete", sellerHandler.CompleteOnboarding)
		se.Router.GET("/api/sellers/account", sellerHandler.GetAccount)

		// Prometheus metrics
		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return se.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
