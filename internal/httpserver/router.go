package httpserver

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"orderledger/internal/auth"
	"orderledger/internal/storage"
)

// Deps carries the services the router dispatches to. Auth and Uploads
// are optional.
type Deps struct {
	CustomerSvc customerService
	OrderSvc    orderService
	SearchSvc   searchService
	Uploads     uploadStore
	Auth        auth.Provider

	// RequireAuth rejects anonymous /api calls with 401.
	RequireAuth bool
	CORSOrigins []string
	Location    *time.Location
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CustomerSvc == nil || deps.OrderSvc == nil || deps.SearchSvc == nil {
		return nil, errors.New("httpserver: customer, order and search services are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = storage.MaxUploadSize
	router.Use(requestID(), requestLogger(logger), recovery(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if deps.Auth != nil {
		router.Use(auth.Attach(deps.Auth, logger))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handler{deps: deps, logger: logger}

	pages := router.Group("", auth.RequireDashboard())
	pages.GET(auth.DashboardPath, h.dashboard)
	pages.GET(auth.DashboardPath+"/*page", h.dashboard)
	pages.GET(auth.SignInPath, h.signIn)

	api := router.Group("/api")
	if deps.RequireAuth {
		api.Use(auth.RequireAPI())
	}
	api.GET("/me", auth.RequireAPI(), h.me)

	api.GET("/customers", h.listCustomers)
	api.POST("/customers", h.createCustomer)
	api.GET("/customers/:id", h.getCustomer)
	api.PUT("/customers/:id", h.updateCustomer)
	api.DELETE("/customers/:id", h.deleteCustomer)
	api.POST("/customers/:id/visiting-cards", h.addVisitingCard)

	api.GET("/orders", h.listOrders)
	api.POST("/orders", h.createOrder)
	api.GET("/orders/:id", h.getOrder)
	api.PUT("/orders/:id", h.updateOrder)
	api.DELETE("/orders/:id", h.deleteOrder)
	api.POST("/orders/:id/images", h.addOrderImages)
	api.PATCH("/orders/:id/deliver", h.deliverOrder)

	api.GET("/search", h.search)
	api.POST("/uploads", h.upload)

	return router, nil
}
