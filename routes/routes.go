package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JonasKash/sok/controllers"
	"github.com/JonasKash/sok/middleware"
)

func RegisterRoutes(
	r *gin.Engine,
	pc *controllers.PaymentController,
	cc *controllers.CheckoutController,
	fc *controllers.FunnelController,
	ac *controllers.AdminController,
	adminToken string,
	paymentLimiter gin.HandlerFunc,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/create-pix-payment", paymentLimiter, pc.CreatePixPayment)
	r.GET("/payment-status/:id", pc.GetPaymentStatus)

	checkout := r.Group("/checkout")
	checkout.POST("", cc.Open)
	checkout.POST("/:id/lead", cc.CaptureLead)
	checkout.POST("/:id/payment", cc.StartPayment)
	checkout.GET("/:id", cc.Snapshot)
	checkout.DELETE("/:id", cc.Dismiss)

	r.POST("/events", fc.RecordEvent)
	r.POST("/analyze", fc.Analyze)

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(adminToken))
	admin.GET("/metrics", ac.Metrics)
	admin.GET("/events", ac.Events)
	admin.POST("/utm", ac.BuildUTM)
	admin.GET("/utm/presets", ac.UTMPresets)
}
