package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/service"
	"campus-hub/backend/pkg/response"
)

// NotificationTypeHandler 通知类型管理 HTTP 处理器（管理员）
type NotificationTypeHandler struct {
	typeSvc service.NotificationTypeService
}

// NewNotificationTypeHandler 创建 NotificationTypeHandler
func NewNotificationTypeHandler(typeSvc service.NotificationTypeService) *NotificationTypeHandler {
	return &NotificationTypeHandler{typeSvc: typeSvc}
}

// List 全部通知类型（含停用）
// GET /api/v1/notification-types
func (h *NotificationTypeHandler) List(c *gin.Context) {
	types, err := h.typeSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, types)
}

// Create 新建通知类型
// POST /api/v1/notification-types
func (h *NotificationTypeHandler) Create(c *gin.Context) {
	var req dto.CreateNotificationTypeRequest
	if !bindJSON(c, &req, 26001) {
		return
	}

	nt, err := h.typeSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleTypeError(c, err)
		return
	}

	response.Created(c, nt)
}

// Update 更新通知类型
// PUT /api/v1/notification-types/:id
func (h *NotificationTypeHandler) Update(c *gin.Context) {
	var req dto.UpdateNotificationTypeRequest
	if !bindJSON(c, &req, 26001) {
		return
	}

	nt, err := h.typeSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleTypeError(c, err)
		return
	}

	response.OK(c, nt)
}

func (h *NotificationTypeHandler) handleTypeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationTypeCodeExists):
		response.Conflict(c, 26002, "通知类型编码已存在")
	case errors.Is(err, service.ErrNotificationTypeNotFound):
		response.NotFound(c, 26003, "通知类型不存在")
	default:
		response.InternalError(c)
	}
}
