package api

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/honeypot-engine/internal/callback"
	"github.com/rawblock/honeypot-engine/internal/db"
	"github.com/rawblock/honeypot-engine/internal/detect"
	"github.com/rawblock/honeypot-engine/internal/engage"
	"github.com/rawblock/honeypot-engine/internal/intel"
	"github.com/rawblock/honeypot-engine/internal/quality"
	"github.com/rawblock/honeypot-engine/internal/session"
)

type APIHandler struct {
	sessions   *session.Store
	scorer     *detect.Scorer
	extractor  *intel.Extractor
	watchlist  *intel.Watchlist
	tracker    *quality.Tracker
	controller *engage.Controller
	dispatcher *callback.Dispatcher
	audit      *callback.Auditor
	dbStore    *db.PostgresStore
	wsHub      *Hub
}

// Deps bundles the process-wide subsystems handed to the router.
type Deps struct {
	APIKey     string
	Sessions   *session.Store
	Scorer     *detect.Scorer
	Extractor  *intel.Extractor
	Watchlist  *intel.Watchlist
	Tracker    *quality.Tracker
	Controller *engage.Controller
	Dispatcher *callback.Dispatcher
	Audit      *callback.Auditor
	DBStore    *db.PostgresStore
	WSHub      *Hub
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://ops.example.net
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, x-api-key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		sessions:   deps.Sessions,
		scorer:     deps.Scorer,
		extractor:  deps.Extractor,
		watchlist:  deps.Watchlist,
		tracker:    deps.Tracker,
		controller: deps.Controller,
		dispatcher: deps.Dispatcher,
		audit:      deps.Audit,
		dbStore:    deps.DBStore,
		wsHub:      deps.WSHub,
	}

	auth := APIKeyAuth(deps.APIKey)
	limiter := NewRateLimiter(120, 30)

	r.GET("/", handler.handleStatus)
	r.POST("/honeypot", auth, limiter.Middleware(), handler.handleHoneypot)

	api := r.Group("/api/v1")
	{
		api.GET("/health", handler.handleHealth)
		api.GET("/stream", deps.WSHub.Subscribe)

		protected := api.Group("", auth)
		{
			protected.GET("/sessions/:id", handler.handleGetSession)
			protected.GET("/watchlist", handler.handleWatchlist)
			protected.GET("/callbacks", handler.handleRecentCallbacks)
			protected.GET("/reports", handler.handleRecentReports)
		}
	}

	return r
}
