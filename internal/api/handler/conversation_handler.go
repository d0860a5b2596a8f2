package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/service"
	"campus-hub/backend/pkg/response"
)

// ConversationHandler 私信会话 HTTP 处理器
type ConversationHandler struct {
	messageSvc service.MessageService
}

// NewConversationHandler 创建 ConversationHandler
func NewConversationHandler(messageSvc service.MessageService) *ConversationHandler {
	return &ConversationHandler{messageSvc: messageSvc}
}

// Create 创建会话，创建者自动成为管理员
// POST /api/v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if !bindJSON(c, &req, 24001) {
		return
	}

	conv, err := h.messageSvc.CreateConversation(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.Created(c, conv)
}

// SendMessage 发送消息并触发通知扇出
// POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(c, &req, 24001) {
		return
	}

	msg, err := h.messageSvc.SendMessage(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.Created(c, msg)
}

// ListMessages 会话消息列表（新消息在前）
// GET /api/v1/conversations/:id/messages
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PaginationRequest
	if !bindQuery(c, &req, 24001) {
		return
	}

	list, total, err := h.messageSvc.ListMessages(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// MarkRead 推进已读水位
// PUT /api/v1/conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.messageSvc.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.OK(c, nil)
}

// UnreadCount 会话未读消息数
// GET /api/v1/conversations/:id/unread-count
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.messageSvc.UnreadCount(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.OK(c, dto.CountResponse{Count: count})
}

// UpdateSettings 更新静音与通知设置
// PUT /api/v1/conversations/:id/settings
func (h *ConversationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ParticipantSettingsRequest
	if !bindJSON(c, &req, 24001) {
		return
	}

	p, err := h.messageSvc.UpdateSettings(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.OK(c, p)
}

func (h *ConversationHandler) handleConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		response.NotFound(c, 24002, "会话不存在")
	case errors.Is(err, service.ErrNotParticipant):
		response.Forbidden(c, 24003, "不是该会话成员")
	case errors.Is(err, service.ErrParticipantNotFound):
		response.BadRequest(c, 24004, "部分成员用户不存在")
	default:
		response.InternalError(c)
	}
}
