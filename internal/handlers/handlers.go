package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"nextlevel/api/internal/config"
	"nextlevel/api/internal/middleware"
	"nextlevel/api/internal/models"
	"nextlevel/api/internal/pagination"
	"nextlevel/api/internal/service"
)

// WelcomeMailer sends the post-registration greeting. Delivery is best
// effort and never blocks the registration response.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// UserLister is the read-side slice of the user repository the admin
// listing needs.
type UserLister interface {
	List(ctx context.Context, p pagination.Params) ([]models.User, int64, error)
}

// Pusher delivers push notifications, best effort.
type Pusher interface {
	Push(ctx context.Context, title, message string, userIDs []string) error
}

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	auth   *service.AuthService
	otp    *service.OTPService
	upload *service.UploadService
	users  UserLister
	mailer WelcomeMailer
	push   Pusher
	mongo  *mongo.Client
	cache  *redis.Client
}

type Deps struct {
	Log    zerolog.Logger
	Cfg    *config.AppConfig
	Auth   *service.AuthService
	OTP    *service.OTPService
	Upload *service.UploadService
	Users  UserLister
	Mailer WelcomeMailer
	Push   Pusher
	Mongo  *mongo.Client
	Cache  *redis.Client
}

func NewHandlerSet(deps Deps) HandlerSet {
	return HandlerSet{
		log:    deps.Log,
		cfg:    deps.Cfg,
		auth:   deps.Auth,
		otp:    deps.OTP,
		upload: deps.Upload,
		users:  deps.Users,
		mailer: deps.Mailer,
		push:   deps.Push,
		mongo:  deps.Mongo,
		cache:  deps.Cache,
	}
}

// Register wires the route table. The admission gate runs on the whole
// group; the whitelist decides which of these paths skip it.
func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/health", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.RefreshToken)
		auth.POST("/logout", h.Logout)
		auth.POST("/logout-all", h.LogoutAll)
		auth.GET("/me", h.Me)
		auth.GET("/sessions", h.Sessions)

		otp := v1.Group("/otp")
		otp.POST("/request", h.RequestOTP)
		otp.POST("/verify", h.VerifyOTP)

		users := v1.Group("/users")
		users.POST("/avatar", h.UploadAvatar)
		users.GET("", middleware.RequireRoles(models.UserRoleAdmin), h.ListUsers)
	}
}
