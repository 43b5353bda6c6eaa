package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/shadepanel/pkg/api/handlers"
	"github.com/urmzd/shadepanel/pkg/db"
	"github.com/urmzd/shadepanel/pkg/device"
	"github.com/urmzd/shadepanel/pkg/device/schema"
)

// Dependencies are the services the router wires into its handlers.
type Dependencies struct {
	Controller  device.Controller
	Validator   *schema.Validator
	Hub         *handlers.Hub
	Preferences db.PreferenceStore
	ProfileID   int64
	// OnSettings is called after preferences are saved.
	OnSettings func(*db.Preferences)
}

// Router holds the Gin engine and dependencies
type Router struct {
	engine *gin.Engine
	deps   Dependencies
}

// NewRouter creates a new API router
func NewRouter(deps Dependencies) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	if deps.Validator == nil {
		deps.Validator = schema.NewValidator()
	}
	if deps.Hub == nil {
		deps.Hub = handlers.NewHub(deps.Controller)
	}

	router := &Router{
		engine: engine,
		deps:   deps,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.deps.Controller, r.deps.Hub)
	actorsHandler := handlers.NewActorsHandler(r.deps.Controller)
	commandsHandler := handlers.NewCommandsHandler(r.deps.Controller, r.deps.Validator, r.deps.Hub)
	eventsHandler := handlers.NewEventsHandler(r.deps.Hub)

	api := r.engine.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/events", eventsHandler.Events)

		// Actors; the name "all" addresses every actor
		actors := api.Group("/actors")
		{
			actors.GET("", actorsHandler.ListActors)
			actors.GET("/:name", actorsHandler.GetActor)
			actors.POST("/:name/position", commandsHandler.Actor(device.KindPosition))
			actors.POST("/:name/tilt", commandsHandler.Actor(device.KindTilt))
			actors.POST("/:name/slat", commandsHandler.Actor(device.KindSlat))
		}

		groups := api.Group("/groups")
		{
			groups.GET("", actorsHandler.ListGroups)
			groups.POST("/:id/position", commandsHandler.Group(device.KindPosition))
			groups.POST("/:id/tilt", commandsHandler.Group(device.KindTilt))
			groups.POST("/:id/slat", commandsHandler.Group(device.KindSlat))
		}

		if r.deps.Preferences != nil {
			settingsHandler := handlers.NewSettingsHandler(r.deps.Preferences, r.deps.ProfileID, r.deps.Validator, r.deps.OnSettings)
			api.GET("/settings", settingsHandler.GetSettings)
			api.PUT("/settings", settingsHandler.UpdateSettings)
		}
	}
}

// Handler returns the HTTP handler serving the API
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
