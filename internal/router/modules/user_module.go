package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-user-relations/internal/interface/http"
	"github.com/oksasatya/go-user-relations/internal/interface/middleware"
	"github.com/oksasatya/go-user-relations/pkg/helpers"
)

// UserModule wires the user HTTP handlers into routes under the given group (usually /api).
// Public: POST /users/register, POST /users/login
// Internal: POST /internal/users/relogin (private addresses, identifier login enabled)
// Protected: everything else under /users
type UserModule struct {
	Handler        *handlers.UserHandler
	JWT            *helpers.JWTManager
	Redis          *redis.Client // nil disables rate limiting
	Logger         *logrus.Logger
	UploadMaxBytes int64
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, uploadMaxBytes int64) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Redis: rdb, Logger: logger, UploadMaxBytes: uploadMaxBytes}
}

func (m *UserModule) limit(max int, key middleware.KeyFunc) gin.HandlerFunc {
	return middleware.RateLimit(m.Redis, middleware.Limit{Max: max, Window: time.Minute, Key: key}, m.Logger)
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	avatar := middleware.SingleFile(handlers.AvatarField, m.UploadMaxBytes)

	// Public with rate limiting
	rg.POST("/users/register", m.limit(20, middleware.KeyByIPAndPath()), avatar, m.Handler.Register)
	rg.POST("/users/login", m.limit(10, middleware.KeyByIPAndPath()), m.Handler.Login)

	if m.Handler.IDLoginEnabled {
		internal := rg.Group("/internal", middleware.RequirePrivateIP())
		internal.POST("/users/relogin", m.Handler.Relogin)
	}

	// Protected
	auth := rg.Group("/users")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(m.limit(120, middleware.KeyByUserID()))
	{
		auth.GET("", m.Handler.List)
		auth.GET("/search", m.Handler.Search)
		auth.GET("/search/text", m.Handler.SearchText)
		auth.GET("/:id", m.Handler.Get)

		auth.PATCH("/add-friend/:id", m.Handler.AddFriend)
		auth.PATCH("/add-enemy/:id", m.Handler.AddEnemy)
		auth.PATCH("/remove-friend/:id", m.Handler.RemoveFriend)
		auth.PATCH("/remove-enemy/:id", m.Handler.RemoveEnemy)

		auth.PATCH("/:id", m.Handler.Update)
		auth.PATCH("/:id/avatar", avatar, m.Handler.UploadAvatar)
		auth.DELETE("/:id", m.Handler.Delete)
	}
}
