package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
)

// ErrNotificationTypeCodeExists 通知类型编码重复
var ErrNotificationTypeCodeExists = errors.New("通知类型编码已存在")

// NotificationTypeService 通知类型管理接口（仅管理员）
type NotificationTypeService interface {
	List(ctx context.Context) ([]dto.NotificationTypeResponse, error)
	// Create 创建类型；启用状态下为现有用户批量预建默认偏好
	Create(ctx context.Context, req *dto.CreateNotificationTypeRequest) (*dto.NotificationTypeResponse, error)
	// Update 更新类型；编码不可修改。由停用转为启用时补齐缺失的偏好行
	Update(ctx context.Context, id string, req *dto.UpdateNotificationTypeRequest) (*dto.NotificationTypeResponse, error)
}

type notificationTypeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationTypeService 创建 NotificationTypeService 实例
func NewNotificationTypeService(repo *repository.Repository, logger *zap.Logger) NotificationTypeService {
	return &notificationTypeService{repo: repo, logger: logger}
}

func (s *notificationTypeService) List(ctx context.Context) ([]dto.NotificationTypeResponse, error) {
	types, err := s.repo.NotificationType.List(ctx, true)
	if err != nil {
		s.logger.Error("查询通知类型失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.NotificationTypeResponse, 0, len(types))
	for i := range types {
		result = append(result, toNotificationTypeResponse(&types[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *notificationTypeService) Create(ctx context.Context, req *dto.CreateNotificationTypeRequest) (*dto.NotificationTypeResponse, error) {
	existing, err := s.repo.NotificationType.GetByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询通知类型失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrNotificationTypeCodeExists
	}

	t := &model.NotificationType{
		Code:                  req.Code,
		Name:                  req.Name,
		Description:           req.Description,
		TitleTemplate:         req.TitleTemplate,
		BodyTemplate:          req.BodyTemplate,
		HasEmail:              req.HasEmail,
		HasInApp:              req.HasInApp,
		HasPush:               req.HasPush,
		DefaultUserPreference: req.DefaultUserPreference,
		IsActive:              true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	var seeded int
	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.NotificationType.Create(ctx, t); err != nil {
			return err
		}
		seeded, err = bootstrapTypePreferences(ctx, txRepo, t)
		return err
	})
	if err != nil {
		s.logger.Error("创建通知类型失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	s.logger.Info("通知类型已创建", zap.String("code", t.Code), zap.Int("seeded_preferences", seeded))
	resp := toNotificationTypeResponse(t)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *notificationTypeService) Update(ctx context.Context, id string, req *dto.UpdateNotificationTypeRequest) (*dto.NotificationTypeResponse, error) {
	t, err := s.repo.NotificationType.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationTypeNotFound
		}
		s.logger.Error("查询通知类型失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	wasActive := t.IsActive
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.TitleTemplate != nil {
		t.TitleTemplate = *req.TitleTemplate
	}
	if req.BodyTemplate != nil {
		t.BodyTemplate = *req.BodyTemplate
	}
	if req.HasEmail != nil {
		t.HasEmail = *req.HasEmail
	}
	if req.HasInApp != nil {
		t.HasInApp = *req.HasInApp
	}
	if req.HasPush != nil {
		t.HasPush = *req.HasPush
	}
	if req.DefaultUserPreference != nil {
		t.DefaultUserPreference = *req.DefaultUserPreference
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.NotificationType.Update(ctx, t); err != nil {
			return err
		}
		if req.EmailTemplate != nil {
			if err := txRepo.NotificationTemplate.Upsert(ctx, &model.NotificationTemplate{
				NotificationTypeID: t.NotificationTypeID,
				EmailSubject:       req.EmailTemplate.Subject,
				EmailHTMLBody:      req.EmailTemplate.HTMLBody,
				EmailTextBody:      req.EmailTemplate.TextBody,
			}); err != nil {
				return err
			}
		}
		if !wasActive && t.IsActive {
			_, err := bootstrapTypePreferences(ctx, txRepo, t)
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error("更新通知类型失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toNotificationTypeResponse(t)
	return &resp, nil
}

func toNotificationTypeResponse(t *model.NotificationType) dto.NotificationTypeResponse {
	return dto.NotificationTypeResponse{
		ID:                    t.NotificationTypeID,
		Code:                  t.Code,
		Name:                  t.Name,
		Description:           t.Description,
		TitleTemplate:         t.TitleTemplate,
		BodyTemplate:          t.BodyTemplate,
		HasEmail:              t.HasEmail,
		HasInApp:              t.HasInApp,
		HasPush:               t.HasPush,
		DefaultUserPreference: t.DefaultUserPreference,
		IsActive:              t.IsActive,
	}
}
