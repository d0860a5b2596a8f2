package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
)

// ── 推送设备业务错误 ──

var (
	ErrDeviceTokenNotFound = errors.New("设备未注册")
	ErrInvalidPlatform     = errors.New("不支持的设备平台")
)

// DeviceTokenService 推送设备注册接口
type DeviceTokenService interface {
	// Register 按 (user, token) 注册或重新激活设备，并更新平台与设备名
	Register(ctx context.Context, userID string, req *dto.RegisterDeviceRequest) (*dto.DeviceTokenResponse, error)
	// Unregister 停用设备，保留记录
	Unregister(ctx context.Context, userID, token string) error
	ListActive(ctx context.Context, userID string) ([]dto.DeviceTokenResponse, error)
}

type deviceTokenService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDeviceTokenService 创建 DeviceTokenService 实例
func NewDeviceTokenService(repo *repository.Repository, logger *zap.Logger) DeviceTokenService {
	return &deviceTokenService{repo: repo, logger: logger}
}

func (s *deviceTokenService) Register(ctx context.Context, userID string, req *dto.RegisterDeviceRequest) (*dto.DeviceTokenResponse, error) {
	if !model.ValidPlatform(req.Platform) {
		return nil, ErrInvalidPlatform
	}

	existing, err := s.repo.DeviceToken.GetByUserAndToken(ctx, userID, req.Token)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询设备失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if existing != nil {
		existing.Platform = req.Platform
		existing.DeviceName = req.DeviceName
		existing.IsActive = true
		existing.UpdatedAt = time.Now()
		if err := s.repo.DeviceToken.Update(ctx, existing); err != nil {
			s.logger.Error("更新设备失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		return toDeviceTokenResponse(existing), nil
	}

	d := &model.DeviceToken{
		UserID:     userID,
		Token:      req.Token,
		Platform:   req.Platform,
		DeviceName: req.DeviceName,
		IsActive:   true,
	}
	if err := s.repo.DeviceToken.Create(ctx, d); err != nil {
		s.logger.Error("注册设备失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toDeviceTokenResponse(d), nil
}

func (s *deviceTokenService) Unregister(ctx context.Context, userID, token string) error {
	affected, err := s.repo.DeviceToken.Deactivate(ctx, userID, token)
	if err != nil {
		s.logger.Error("注销设备失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	if affected == 0 {
		return ErrDeviceTokenNotFound
	}
	return nil
}

func (s *deviceTokenService) ListActive(ctx context.Context, userID string) ([]dto.DeviceTokenResponse, error) {
	list, err := s.repo.DeviceToken.ListActiveByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询设备失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.DeviceTokenResponse, 0, len(list))
	for i := range list {
		result = append(result, *toDeviceTokenResponse(&list[i]))
	}
	return result, nil
}

func toDeviceTokenResponse(d *model.DeviceToken) *dto.DeviceTokenResponse {
	resp := &dto.DeviceTokenResponse{
		ID:         d.DeviceTokenID,
		Platform:   d.Platform,
		DeviceName: d.DeviceName,
		IsActive:   d.IsActive,
	}
	if d.LastUsedAt != nil {
		resp.LastUsedAt = d.LastUsedAt.Format(time.RFC3339)
	}
	return resp
}
