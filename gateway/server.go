package gateway

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/crypto"
	"github.com/StanleyRoberts/Nix-Bot-sub000/game"
)

const (
	errMissingToken       = "missing-token"
	errInvalidToken       = "invalid-token"
	errInvalidCredentials = "invalid-credentials"
	errBadRequestFormat   = "bad-request-format"
)

// Server is the chat-platform edge: websocket event streams per room plus
// a small JWT-protected ops surface.
type Server struct {
	hub      *Hub
	registry *game.Registry
	hasher   *crypto.Argon2idHasher
	tokens   *crypto.JWTManager
	opsHash  string
	log      zerolog.Logger
}

func NewServer(hub *Hub, registry *game.Registry, hasher *crypto.Argon2idHasher, tokens *crypto.JWTManager, opsHash string, log zerolog.Logger) *Server {
	return &Server{
		hub:      hub,
		registry: registry,
		hasher:   hasher,
		tokens:   tokens,
		opsHash:  opsHash,
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	r.GET("/rooms/:roomID/ws", s.RoomStreamHandler)

	ops := r.Group("/ops")
	ops.POST("/login", s.OpsLoginHandler)
	ops.GET("/sessions", s.RequireOpsAuth(), s.ListSessionsHandler)
	ops.DELETE("/sessions/:roomID", s.RequireOpsAuth(), s.EvictSessionHandler)

	return r
}

// RoomStreamHandler upgrades the request and runs the client against the
// hub until the socket drops.
func (s *Server) RoomStreamHandler(ctx *gin.Context) {
	roomID := ctx.Param("roomID")
	userID := ctx.Query("user")
	if userID == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true }, // origin checked by middleware
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Msg("ws upgrade failed")
		return
	}

	s.hub.Serve(roomID, userID, newWebsocketConnection(conn))
}

type opsLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (s *Server) OpsLoginHandler(ctx *gin.Context) {
	var req opsLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errBadRequestFormat})
		return
	}

	match, err := s.hasher.Compare(s.opsHash, req.Password)
	if err != nil || !match {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	}

	token, err := s.tokens.Generate("ops", time.Now())
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token-generation-failed"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) RequireOpsAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, ok := cutBearer(header)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingToken})
			return
		}
		if _, err := s.tokens.Verify(token); err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
			return
		}
		ctx.Next()
	}
}

func cutBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

func (s *Server) ListSessionsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"sessions": s.registry.List()})
}

func (s *Server) EvictSessionHandler(ctx *gin.Context) {
	// Evicting an absent room is still a 204.
	s.registry.Remove(ctx.Param("roomID"))
	ctx.Status(http.StatusNoContent)
}
