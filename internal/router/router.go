package router

import (
	"time"

	"ravito/internal/config"
	"ravito/internal/handler"
	"ravito/internal/infra"
	"ravito/internal/middleware"
	"ravito/internal/repository"
	"ravito/internal/service"
	"ravito/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	roleAdmin    = "admin"
	roleClient   = "client"
	roleSupplier = "supplier"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker, store infra.Storage) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	locker := infra.NewRedisLocker(rdb)
	cache := infra.NewRedisCache(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTxRunner(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	repRepo := repository.NewSalesRepRepository(db)
	zoneRepo := repository.NewZoneRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	sheetRepo := repository.NewDailySheetRepository(db)
	cartRepo := repository.NewCartRepository(rdb, time.Duration(cfg.CartTTLHours)*time.Hour)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, orgRepo, zoneRepo, cartRepo, tx, dispatcher, cfg)
	zoneSvc := service.NewZoneService(zoneRepo)
	catalogSvc := service.NewCatalogService(productRepo, cache, cfg)
	directorySvc := service.NewDirectoryService(orgRepo, repRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	orderSvc := service.NewOrderService(orderRepo, zoneRepo, cartRepo, userRepo, tx, dispatcher, cfg)
	sheetSvc := service.NewDailySheetService(sheetRepo, productRepo, orgRepo, locker, dispatcher, store, cfg)
	annualSvc := service.NewAnnualService(sheetRepo, productRepo, orgRepo, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	zonesH := handler.NewZonesHandler(zoneSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	directoryH := handler.NewDirectoryHandler(directorySvc)
	cartH := handler.NewCartHandler(cartSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	sheetsH := handler.NewDailySheetsHandler(sheetSvc)
	reportsH := handler.NewReportsHandler(annualSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", middleware.LoginRateLimiter(), authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/password-strength", authH.PasswordStrength)
	}

	pub := r.Group("/v1")
	{
		pub.GET("/zones", zonesH.ListActive)
		pub.GET("/products", catalogH.List)
		pub.GET("/products/:id", catalogH.Get)
		pub.GET("/organizations/:id/name", directoryH.OrganizationName)
		pub.GET("/sales-representatives", directoryH.SalesRepresentatives)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)
		v1.POST("/auth/logout", authH.Logout)

		// Cart and checkout: clients only
		cart := v1.Group("/cart", middleware.RequireRole(roleClient))
		{
			cart.GET("", cartH.Get)
			cart.POST("/actions", cartH.Apply)
			cart.DELETE("", cartH.Clear)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.RequireRole(roleClient), ordersH.Checkout)
			orders.GET("", ordersH.List)
			orders.GET("/export.csv", ordersH.Export)
			orders.GET("/:id", ordersH.Get)
			orders.POST("/:id/offers", middleware.RequireRole(roleSupplier), ordersH.SubmitOffer)
			orders.POST("/:id/offers/:offer_id/accept", middleware.RequireRole(roleClient), ordersH.AcceptOffer)
			orders.POST("/:id/payment", middleware.RequireRole(roleClient), ordersH.ConfirmPayment)
			orders.POST("/:id/status", middleware.RequireRole(roleClient, roleSupplier), ordersH.AdvanceStatus)
			orders.POST("/:id/cancel", middleware.RequireRole(roleClient, roleAdmin), ordersH.Cancel)
			orders.POST("/:id/rating", middleware.RequireRole(roleClient), ordersH.Rate)
		}

		// Establishment management: the client's own bar
		v1.GET("/prices", middleware.RequireRole(roleClient), catalogH.Prices)
		v1.PUT("/prices/:product_id", middleware.RequireRole(roleClient), catalogH.SetPrice)

		sheets := v1.Group("/daily-sheets", middleware.RequireRole(roleClient))
		{
			sheets.POST("", sheetsH.Open)
			sheets.GET("", sheetsH.List)
			sheets.GET("/date/:date", sheetsH.GetByDate)
			sheets.GET("/:id", sheetsH.Get)
			sheets.PATCH("/:id/stock-lines/:line_id", sheetsH.UpdateStockLine)
			sheets.POST("/:id/expenses", sheetsH.AddExpense)
			sheets.DELETE("/:id/expenses/:expense_id", sheetsH.DeleteExpense)
			sheets.PATCH("/:id/packaging/:packaging_id", sheetsH.UpdatePackaging)
			sheets.PATCH("/:id/credit", sheetsH.UpdateCredit)
			sheets.GET("/:id/check", sheetsH.Check)
			sheets.POST("/:id/close", sheetsH.Close)
			sheets.GET("/:id/pdf", sheetsH.PDF)
		}

		reports := v1.Group("/reports", middleware.RequireRole(roleClient))
		{
			reports.GET("/annual", reportsH.Annual)
			reports.GET("/annual/pdf", reportsH.AnnualPDF)
			reports.GET("/annual/xlsx", reportsH.AnnualXLSX)
		}

		supplier := v1.Group("/supplier", middleware.RequireRole(roleSupplier))
		{
			supplier.GET("/zones", zonesH.Mine)
			supplier.POST("/zones", zonesH.Request)
		}

		admin := v1.Group("/admin", middleware.RequireRole(roleAdmin))
		{
			admin.GET("/users", usersH.List)
			admin.PATCH("/users/:id/approve", usersH.Approve)
			admin.PATCH("/users/:id/reject", usersH.Reject)
			admin.PATCH("/users/:id/suspend", usersH.Suspend)

			admin.GET("/zones", zonesH.ListAll)
			admin.POST("/zones", zonesH.Create)
			admin.PUT("/zones/:id", zonesH.Update)
			admin.DELETE("/zones/:id", zonesH.Delete)

			admin.GET("/zone-requests", zonesH.Requests)
			admin.PATCH("/zone-requests/:id/approve", zonesH.ApproveRequest)
			admin.PATCH("/zone-requests/:id/reject", zonesH.RejectRequest)

			admin.POST("/products", catalogH.Create)
			admin.PUT("/products/:id", catalogH.Update)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
