package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/metrics"
	"telemetry-viewer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// ViewerServer
// -----------------------------------------------------------------------------

type ViewerServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine
	http   *http.Server

	control    interfaces.IViewerControl
	journal    interfaces.IJournal
	authority  interfaces.IPresignAuthority
	metrics    *metrics.Metrics
	errHandler *helpers.ErrorHandler

	// WebSocket clients
	clients     map[*Client]struct{}
	broadcast   chan *models.MDisplayFrame // Buffered so the session never waits on us
	register    chan *Client
	unregister  chan *Client
	direct      chan clientMessage
	quit        chan struct{}
	stopOnce    sync.Once
	connections atomic.Int64

	// Local cache
	latestFrame *models.MDisplayFrame
	frameMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewViewerServer wires the REST, metrics and websocket surfaces. authority
// may be nil when presign.serve is off.
func NewViewerServer(
	cfg *models.MConfig,
	control interfaces.IViewerControl,
	journal interfaces.IJournal,
	authority interfaces.IPresignAuthority,
	m *metrics.Metrics,
	log *logger.Logger,
) *ViewerServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "DEBUG") && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(cfg, "Server")
	}

	s := &ViewerServer{
		Config:     cfg,
		Logger:     log,
		engine:     gin.Default(),
		control:    control,
		journal:    journal,
		authority:  authority,
		metrics:    m,
		errHandler: helpers.NewErrorHandler(log),
		clients:    make(map[*Client]struct{}),
		// Queue size of 256 absorbs bursts of frames
		broadcast:  make(chan *models.MDisplayFrame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan clientMessage, 64),
		quit:       make(chan struct{}),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.handleWebsockets()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ViewerServer) setupRoutes() {
	api := s.engine.Group("/api")

	// Session control
	api.POST("/session/start", s.sessionCommand("start"))
	api.POST("/session/stop", s.sessionCommand("stop"))
	api.POST("/session/pause", s.sessionCommand("pause"))
	api.POST("/session/resume", s.sessionCommand("resume"))
	api.POST("/session/clear", s.sessionCommand("clear"))
	api.POST("/session/disconnect", s.sessionCommand("disconnect"))
	api.PUT("/view", s.putView)

	// Read only
	api.GET("/status", s.getStatus)
	api.GET("/frame", s.getFrame)
	api.GET("/config", s.getConfig)
	api.GET("/health", s.getHealth)
	api.GET("/journal", s.getJournal)
	api.GET("/messages", s.getMessages)

	if s.Config.Presign.Serve && s.authority != nil {
		api.GET("/iot-presign", s.getPresign)
	}

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the routes, mainly for tests.
func (s *ViewerServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ViewerServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------

// commandContext bounds a control call. Start may wait for a full connect.
func (s *ViewerServer) commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.Config.Transport.ConnectTimeoutMs)*time.Millisecond + 5*time.Second
	return context.WithTimeout(parent, timeout)
}
