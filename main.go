package main

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JonasKash/sok/config"
	"github.com/JonasKash/sok/controllers"
	"github.com/JonasKash/sok/database"
	"github.com/JonasKash/sok/gateway"
	"github.com/JonasKash/sok/kafka"
	"github.com/JonasKash/sok/logger"
	"github.com/JonasKash/sok/middleware"
	"github.com/JonasKash/sok/repository"
	"github.com/JonasKash/sok/routes"
	"github.com/JonasKash/sok/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[FunnelService] ❌ Failed to load config:", err)
	}

	logger.Initialize(cfg.Env)
	zl := logger.Log
	defer zl.Sync()

	if err := database.Connect(cfg); err != nil {
		log.Fatal("[FunnelService] ❌ Failed to connect to DB:", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatal("[FunnelService] ❌ Failed to migrate models:", err)
	}

	redisClient := database.NewRedisClient(cfg.RedisURL)

	// Repositories
	funnelRepo := repository.NewFunnelEventRepository(database.DB)
	leadRepo := repository.NewLeadRepository(database.DB)
	attributionRepo := repository.NewAttributionRepository(redisClient)

	// Funnel event fan-out: tracking webhook plus optional Kafka stream.
	var publisher services.EventPublisher
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewFunnelEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
	}
	tracking := services.NewWebhookClient(cfg.TrackingWebhookURL, zl)
	funnelSvc := services.NewFunnelService(funnelRepo, tracking, publisher, zl)

	// Payment gateway + conversion notification
	mp := gateway.NewClient(cfg.MercadoPagoAccessToken, cfg.MercadoPagoBaseURL, gateway.UUIDKeyAllocator{})
	fb := services.NewFacebookConversions(cfg.FacebookPixelID, cfg.FacebookToken, zl)
	notifier := services.NewConversionNotifier(funnelSvc, fb, leadRepo, zl)

	crm := services.NewWebhookClient(cfg.CRMWebhookURL, zl)
	checkoutMgr := services.NewCheckoutManager(
		mp, notifier, leadRepo, attributionRepo, funnelSvc, crm,
		cfg.ReportPrice, cfg.SuccessURL, zl,
	)

	var analyzer services.Analyzer
	if cfg.AnalyzerURL != "" {
		analyzer = services.NewRemoteAnalyzer(cfg.AnalyzerURL, zl)
	} else {
		log.Println("[FunnelService] Analyzer URL not set, serving offline reports")
		analyzer = services.NewMockAnalyzer()
	}

	// HTTP server
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	pc := &controllers.PaymentController{Gateway: mp, Logger: zl}
	cc := &controllers.CheckoutController{Manager: checkoutMgr, Logger: zl}
	fc := &controllers.FunnelController{Funnel: funnelSvc, Analyzer: analyzer, Logger: zl}
	ac := &controllers.AdminController{Funnel: funnelSvc, Logger: zl}
	paymentLimiter := middleware.RateLimit(cfg.PaymentRatePerMinute, cfg.PaymentRateBurst, zl)
	routes.RegisterRoutes(r, pc, cc, fc, ac, cfg.AdminToken, paymentLimiter)

	log.Println("[FunnelService] ✅ Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[FunnelService] ❌ Server failed:", err)
	}
}
