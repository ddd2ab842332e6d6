package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/reportik/reportik/internal/api/v1"
	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/rest/middleware"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Account *v1.AccountHandler
	Billing *v1.BillingHandler
	Client  *v1.ClientHandler
	Report  *v1.ReportHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.RateLimitMiddleware(rate.Limit(20), 40),
		middleware.ErrorHandler(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Unauthenticated surfaces: provider notifications and shared reports
	router.POST("/v1/billing/webhook", handlers.Billing.HandleNotification)
	router.GET("/public/reports/:token", handlers.Report.GetPublicReport)

	// Account creation happens before a tenant exists
	router.POST("/v1/accounts", handlers.Account.SignUp)

	v1Group := router.Group("/v1", middleware.TenantMiddleware)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/account", handlers.Account.GetAccount)

	credits := router.Group("/credits")
	{
		credits.GET("/balance", handlers.Account.GetBalance)
		credits.GET("/ledger", handlers.Account.GetLedger)
	}

	billing := router.Group("/billing")
	{
		billing.POST("/plan", handlers.Billing.UpgradePlan)
		billing.POST("/credits", handlers.Billing.PurchaseCredits)
		billing.GET("/history", handlers.Billing.GetPaymentHistory)
	}

	clients := router.Group("/clients")
	{
		clients.POST("", handlers.Client.CreateClient)
		clients.GET("", handlers.Client.ListClients)
		clients.GET("/:id", handlers.Client.GetClient)
		clients.DELETE("/:id", handlers.Client.DeleteClient)
	}

	reports := router.Group("/reports")
	{
		reports.POST("", handlers.Report.CreateReport)
		reports.GET("", handlers.Report.ListReports)
		reports.GET("/:id", handlers.Report.GetReport)
		reports.POST("/:id/public-link", handlers.Report.GeneratePublicLink)
		reports.DELETE("/:id/public-link", handlers.Report.RevokePublicLink)
	}
}
