package dto

// RegisterDeviceRequest 注册推送设备请求
type RegisterDeviceRequest struct {
	Token      string `json:"token"       binding:"required,max=512"`
	Platform   string `json:"platform"    binding:"required,platform"`
	DeviceName string `json:"device_name" binding:"omitempty,max=200"`
}

// DeviceTokenResponse 推送设备响应
type DeviceTokenResponse struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	DeviceName string `json:"device_name"`
	IsActive   bool   `json:"is_active"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}
