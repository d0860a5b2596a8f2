package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/service"
	pkgerrors "campus-hub/backend/pkg/errors"
	"campus-hub/backend/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List 我的通知列表
// GET /api/v1/notifications?status=unread&page=1&page_size=20
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if !bindQuery(c, &req, 21001) {
		return
	}

	list, total, err := h.notificationSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UnreadCount 未读通知数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.CountResponse{Count: count})
}

// MarkRead 标记已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	h.transition(c, h.notificationSvc.MarkAsRead)
}

// MarkUnread 标记未读
// PUT /api/v1/notifications/:id/unread
func (h *NotificationHandler) MarkUnread(c *gin.Context) {
	h.transition(c, h.notificationSvc.MarkAsUnread)
}

// Archive 归档
// PUT /api/v1/notifications/:id/archive
func (h *NotificationHandler) Archive(c *gin.Context) {
	h.transition(c, h.notificationSvc.Archive)
}

func (h *NotificationHandler) transition(c *gin.Context, apply func(ctx context.Context, userID, id string) (*dto.NotificationResponse, error)) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 21001, "通知ID不能为空")
		return
	}

	result, err := apply(c.Request.Context(), userID, id)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkAllRead 全部标记已读
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	affected, err := h.notificationSvc.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.AffectedResponse{Affected: affected})
}

// ArchiveRead 归档全部已读
// PUT /api/v1/notifications/archive-read
func (h *NotificationHandler) ArchiveRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	affected, err := h.notificationSvc.ArchiveAllRead(c.Request.Context(), userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.AffectedResponse{Affected: affected})
}

// Send 管理员发送通知
// POST /api/v1/notifications/send
func (h *NotificationHandler) Send(c *gin.Context) {
	var req dto.SendNotificationRequest
	if !bindJSON(c, &req, 21001) {
		return
	}

	result, err := h.notificationSvc.Send(c.Request.Context(), &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.Created(c, result)
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 21002, "通知不存在")
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.Conflict(c, 21003, "已归档的通知不能再修改状态")
	case errors.Is(err, service.ErrNotificationTypeNotFound):
		response.BadRequest(c, 21004, "通知类型不存在或已停用")
	default:
		response.InternalError(c)
	}
}
