package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/menprac-cloud/menPrac-backend/ai"
	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/config"
	"github.com/menprac-cloud/menPrac-backend/realtime"
)

// Dispatcher is what the handlers need from the realtime layer: push an
// event into a room or to everyone, after their own persistence step
// succeeded.
type Dispatcher interface {
	EmitToRoom(ctx context.Context, room string, event realtime.Event)
	EmitToAll(ctx context.Context, event realtime.Event)
}

// API wires the REST handlers to their collaborators.
type API struct {
	store      DataStore
	tokens     *auth.TokenManager
	dispatcher Dispatcher
	notes      NoteGenerator
	cfg        *config.AppConfig
}

// NoteGenerator produces a clinical note from session data.
type NoteGenerator interface {
	GenerateNote(ctx context.Context, data ai.SessionData) (string, error)
}

// New creates the API.
func New(store DataStore, tokens *auth.TokenManager, dispatcher Dispatcher, notes NoteGenerator, cfg *config.AppConfig) *API {
	return &API{
		store:      store,
		tokens:     tokens,
		dispatcher: dispatcher,
		notes:      notes,
		cfg:        cfg,
	}
}

// Router builds the gin engine with all routes and middleware. The websocket
// handler is mounted on the same listener so one port serves everything.
func (a *API) Router(wsHandler *realtime.Handler, limiter *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(secureHeaders())
	r.Use(corsMiddleware(a.cfg.Server.AllowedOrigins))
	r.Use(metricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if wsHandler != nil {
		r.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))
	}

	authGroup := r.Group("/api/auth")
	if limiter != nil {
		authGroup.Use(limiter.Middleware("auth", a.cfg.RateLimit.AuthRequests,
			time.Duration(a.cfg.RateLimit.AuthWindow)*time.Second))
	}
	{
		authGroup.POST("/register", a.handleRegister)
		authGroup.POST("/login", a.handleLogin)
		authGroup.POST("/logout", a.requireAuth(), a.handleLogout)
	}

	apiGroup := r.Group("/api")
	if limiter != nil {
		apiGroup.Use(limiter.Middleware("api", a.cfg.RateLimit.APIRequests,
			time.Duration(a.cfg.RateLimit.APIWindow)*time.Second))
	}
	apiGroup.Use(a.requireAuth())
	{
		apiGroup.GET("/dashboard", a.handleDashboard)
		apiGroup.POST("/dashboard/appointments", a.handleCreateAppointment)

		apiGroup.GET("/learners", a.handleListLearners)
		apiGroup.POST("/learners", a.handleCreateLearner)
		apiGroup.GET("/learners/:id", a.handleLearnerProfile)

		apiGroup.GET("/programs", a.handleListPrograms)
		apiGroup.POST("/programs", a.handleCreateProgram)

		apiGroup.POST("/session/start", a.handleStartSession)
		apiGroup.GET("/session/programs/:learnerId", a.handleSessionPrograms)
		apiGroup.POST("/session/trial", a.handleLogTrial)

		apiGroup.GET("/messages/contacts", a.handleContacts)
		apiGroup.GET("/messages/:contactId", a.handleMessageHistory)
		apiGroup.POST("/messages", a.handleSendMessage)

		apiGroup.GET("/users/me", a.handleGetProfile)
		apiGroup.PUT("/users/me", a.handleUpdateProfile)

		apiGroup.POST("/sessions/generate-note", a.handleGenerateNote)
	}

	return r
}

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	httpServer *http.Server
}

// NewServer creates the HTTP server for the given engine.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		},
	}
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start() {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRateLimiterFromConfig returns a limiter, or nil when disabled.
func NewRateLimiterFromConfig(cfg *config.RateLimitConfig, client *redis.Client) *RateLimiter {
	if !cfg.Enabled || client == nil {
		return nil
	}
	return NewRateLimiter(client)
}
