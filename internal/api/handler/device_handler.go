package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/service"
	"campus-hub/backend/pkg/response"
)

// DeviceHandler 推送设备 HTTP 处理器
type DeviceHandler struct {
	deviceSvc service.DeviceTokenService
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(deviceSvc service.DeviceTokenService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// Register 注册或刷新推送令牌
// POST /api/v1/devices
func (h *DeviceHandler) Register(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RegisterDeviceRequest
	if !bindJSON(c, &req, 23001) {
		return
	}

	device, err := h.deviceSvc.Register(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}

	response.Created(c, device)
}

// Unregister 注销推送令牌（保留记录，仅停用）
// DELETE /api/v1/devices/:token
func (h *DeviceHandler) Unregister(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.deviceSvc.Unregister(c.Request.Context(), userID, c.Param("token")); err != nil {
		h.handleDeviceError(c, err)
		return
	}

	response.OK(c, nil)
}

// List 当前用户的有效设备
// GET /api/v1/devices
func (h *DeviceHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	devices, err := h.deviceSvc.ListActive(c.Request.Context(), userID)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}

	response.OK(c, devices)
}

func (h *DeviceHandler) handleDeviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceTokenNotFound):
		response.NotFound(c, 23002, "设备未注册")
	case errors.Is(err, service.ErrInvalidPlatform):
		response.BadRequest(c, 23003, "不支持的设备平台")
	default:
		response.InternalError(c)
	}
}
