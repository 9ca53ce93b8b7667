package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/hirect/internal/config"
	"github.com/xpanvictor/hirect/internal/relay"
	"github.com/xpanvictor/hirect/pkg/Logger"
	"github.com/xpanvictor/hirect/pkg/assistant"
)

// Dependencies carries everything the transport layer needs to serve a
// connection. The assistant is injected so tests can substitute a double.
type Dependencies struct {
	Assistant  assistant.Assistant
	Correlator *relay.Correlator
	Manager    *relay.Manager
	Logger     *Logger.Logger
	Configs    *config.Settings
}

func NewServerDependencies(
	backend assistant.Assistant,
	correlator *relay.Correlator,
	manager *relay.Manager,
	logger *Logger.Logger,
	cfg *config.Settings,
) Dependencies {
	return Dependencies{
		Assistant:  backend,
		Correlator: correlator,
		Manager:    manager,
		Logger:     logger,
		Configs:    cfg,
	}
}

// ChatHandler upgrades connections and hands them to relay sessions.
type ChatHandler struct {
	deps     Dependencies
	upgrader websocket.Upgrader
}

func NewChatHandler(deps Dependencies) *ChatHandler {
	return &ChatHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once a deployment origin list exists
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func InitializeRoutes(cfg *config.Settings, r *gin.Engine, dep Dependencies) {
	r.GET("/", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := NewChatHandler(dep)

	ws := r.Group("/ws")
	{
		// Non-streaming: one response frame per message.
		ws.GET("/chat", h.HandleChat)
		// Streaming: start/chunk/end frames per message.
		ws.GET("/chat2", h.HandleChatStream)
		ws.GET("/stats", h.HandleStats)
	}
}

// HandleChat serves the request/response endpoint.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	h.serve(c, relay.ModeSingle)
}

// HandleChatStream serves the incremental streaming endpoint. Framing and
// error handling are identical to HandleChat; only the response mode differs.
func (h *ChatHandler) HandleChatStream(c *gin.Context) {
	h.serve(c, relay.ModeStream)
}

func (h *ChatHandler) serve(c *gin.Context, mode relay.Mode) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.deps.Logger.Errorf("ws upgrade failed: %v", err)
		return
	}

	session := relay.NewSession(
		mode,
		conn,
		h.deps.Assistant,
		h.deps.Correlator,
		h.deps.Logger,
		h.deps.Configs.Relay,
	)
	h.deps.Manager.Register(session)
	defer h.deps.Manager.Unregister(session.ID)

	session.Run(c.Request.Context())
}

// HandleStats exposes connection statistics.
func (h *ChatHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   h.deps.Manager.Stats(),
	})
}
