package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/service"
	"campus-hub/backend/pkg/response"
)

// PreferenceHandler 通知偏好 HTTP 处理器
type PreferenceHandler struct {
	preferenceSvc service.PreferenceService
}

// NewPreferenceHandler 创建 PreferenceHandler
func NewPreferenceHandler(preferenceSvc service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceSvc: preferenceSvc}
}

// Get 获取当前用户全部启用类型的有效偏好
// GET /api/v1/notification-preferences
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, err := h.preferenceSvc.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, items)
}

// BulkUpdate 批量更新偏好
// PUT /api/v1/notification-preferences
func (h *PreferenceHandler) BulkUpdate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.BulkUpdatePreferencesRequest
	if !bindJSON(c, &req, 22001) {
		return
	}

	items, err := h.preferenceSvc.BulkUpdate(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotificationTypeNotFound) {
			response.BadRequest(c, 22001, "通知类型不存在或已停用")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, items)
}
