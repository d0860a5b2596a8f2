package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campus-hub/backend/config"
	"campus-hub/backend/internal/api/handler"
	"campus-hub/backend/internal/api/middleware"
	"campus-hub/backend/internal/model"
	"campus-hub/backend/pkg/jwt"
	"campus-hub/backend/pkg/redis"
)

// maxBodyBytes 请求体上限（1 MiB）
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时写接口不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidators()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	if cfg.Feature.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Feature.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	writeLimit := middleware.RateLimit(rdb, cfg.Notification.WriteRateLimit, time.Minute, logger)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 用户模块
		users := v1.Group("/users")
		{
			users.GET("/me", h.User.GetCurrentUser)
			users.GET("", adminOnly, h.User.List)
			users.GET("/:id", adminOnly, h.User.Get)
			users.POST("", adminOnly, writeLimit, h.User.Create)
		}

		// 站内通知
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PUT("/read-all", writeLimit, h.Notification.MarkAllRead)
			notifications.PUT("/archive-read", writeLimit, h.Notification.ArchiveRead)
			notifications.PUT("/:id/read", writeLimit, h.Notification.MarkRead)
			notifications.PUT("/:id/unread", writeLimit, h.Notification.MarkUnread)
			notifications.PUT("/:id/archive", writeLimit, h.Notification.Archive)
			notifications.POST("/send", adminOnly, writeLimit, h.Notification.Send)
		}

		// 通知偏好
		v1.GET("/notification-preferences", h.Preference.Get)
		v1.PUT("/notification-preferences", writeLimit, h.Preference.BulkUpdate)

		// 推送设备
		devices := v1.Group("/devices")
		{
			devices.GET("", h.Device.List)
			devices.POST("", writeLimit, h.Device.Register)
			devices.DELETE("/:token", writeLimit, h.Device.Unregister)
		}

		// 私信
		conversations := v1.Group("/conversations")
		{
			conversations.POST("", writeLimit, h.Conversation.Create)
			conversations.GET("/:id/messages", h.Conversation.ListMessages)
			conversations.POST("/:id/messages", writeLimit, h.Conversation.SendMessage)
			conversations.PUT("/:id/read", writeLimit, h.Conversation.MarkRead)
			conversations.GET("/:id/unread-count", h.Conversation.UnreadCount)
			conversations.PUT("/:id/settings", writeLimit, h.Conversation.UpdateSettings)
		}

		// 论坛
		topics := v1.Group("/topics")
		{
			topics.POST("", writeLimit, h.Forum.CreateTopic)
			topics.POST("/:id/posts", writeLimit, h.Forum.CreatePost)
			topics.POST("/:id/subscribe", writeLimit, h.Forum.Subscribe)
			topics.DELETE("/:id/subscribe", writeLimit, h.Forum.Unsubscribe)
			topics.PUT("/:id/viewed", writeLimit, h.Forum.MarkViewed)
		}

		// 通知类型管理（管理员）
		types := v1.Group("/notification-types", adminOnly)
		{
			types.GET("", h.NotificationType.List)
			types.POST("", writeLimit, h.NotificationType.Create)
			types.PUT("/:id", writeLimit, h.NotificationType.Update)
		}

		// 导出（管理员）
		v1.GET("/export/notification-report", adminOnly, h.Export.ExportNotificationReport)
	}

	return r
}
