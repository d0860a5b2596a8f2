package service

import (
	"context"

	"go.uber.org/zap"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
)

// PreferenceService 通知偏好业务接口
type PreferenceService interface {
	// GetPreferences 列出每个启用类型的有效通道（未持久化的按默认值合成）
	GetPreferences(ctx context.Context, userID string) ([]dto.PreferenceItem, error)
	// BulkUpdate 为每个启用类型写入一行偏好；未提交或类型不支持的通道取类型默认值
	BulkUpdate(ctx context.Context, userID string, req *dto.BulkUpdatePreferencesRequest) ([]dto.PreferenceItem, error)
}

type preferenceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPreferenceService 创建 PreferenceService 实例
func NewPreferenceService(repo *repository.Repository, logger *zap.Logger) PreferenceService {
	return &preferenceService{repo: repo, logger: logger}
}

// ────────────────────── GetPreferences ──────────────────────

func (s *preferenceService) GetPreferences(ctx context.Context, userID string) ([]dto.PreferenceItem, error) {
	types, err := s.repo.NotificationType.List(ctx, false)
	if err != nil {
		s.logger.Error("查询通知类型失败", zap.Error(err))
		return nil, err
	}

	prefs, err := s.repo.Preference.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	byType := make(map[string]*model.UserNotificationPreference, len(prefs))
	for i := range prefs {
		byType[prefs[i].NotificationTypeID] = &prefs[i]
	}

	items := make([]dto.PreferenceItem, 0, len(types))
	for i := range types {
		t := &types[i]
		flags := ResolvePreference(byType[t.NotificationTypeID], t)
		items = append(items, dto.PreferenceItem{
			NotificationTypeID: t.NotificationTypeID,
			Code:               t.Code,
			Name:               t.Name,
			HasEmail:           t.HasEmail,
			HasInApp:           t.HasInApp,
			HasPush:            t.HasPush,
			EmailEnabled:       flags.Email,
			InAppEnabled:       flags.InApp,
			PushEnabled:        flags.Push,
		})
	}
	return items, nil
}

// ────────────────────── BulkUpdate ──────────────────────

func (s *preferenceService) BulkUpdate(ctx context.Context, userID string, req *dto.BulkUpdatePreferencesRequest) ([]dto.PreferenceItem, error) {
	types, err := s.repo.NotificationType.List(ctx, false)
	if err != nil {
		s.logger.Error("查询通知类型失败", zap.Error(err))
		return nil, err
	}

	active := make(map[string]bool, len(types))
	for _, t := range types {
		active[t.NotificationTypeID] = true
	}
	submitted := make(map[string]*dto.PreferenceUpdateItem, len(req.Items))
	for i := range req.Items {
		item := &req.Items[i]
		if !active[item.NotificationTypeID] {
			return nil, ErrNotificationTypeNotFound
		}
		submitted[item.NotificationTypeID] = item
	}

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		for i := range types {
			pref := mergePreference(userID, &types[i], submitted[types[i].NotificationTypeID])
			if err := txRepo.Preference.Upsert(ctx, &pref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("批量更新通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return s.GetPreferences(ctx, userID)
}

// mergePreference 合并提交值与类型默认值
func mergePreference(userID string, t *model.NotificationType, item *dto.PreferenceUpdateItem) model.UserNotificationPreference {
	pref := defaultPreference(userID, t)
	if item == nil {
		return pref
	}
	if t.HasEmail && item.EmailEnabled != nil {
		pref.EmailEnabled = *item.EmailEnabled
	}
	if t.HasInApp && item.InAppEnabled != nil {
		pref.InAppEnabled = *item.InAppEnabled
	}
	if t.HasPush && item.PushEnabled != nil {
		pref.PushEnabled = *item.PushEnabled
	}
	return pref
}

// ── 偏好预建 ──

// bootstrapUserPreferences 新用户：为每个启用类型写入默认偏好
func bootstrapUserPreferences(ctx context.Context, repo *repository.Repository, userID string) error {
	types, err := repo.NotificationType.List(ctx, false)
	if err != nil {
		return err
	}
	prefs := make([]model.UserNotificationPreference, 0, len(types))
	for i := range types {
		prefs = append(prefs, defaultPreference(userID, &types[i]))
	}
	return repo.Preference.BatchCreate(ctx, prefs)
}

// bootstrapTypePreferences 新启用类型：为缺少偏好行的用户一次性批量写入默认偏好
func bootstrapTypePreferences(ctx context.Context, repo *repository.Repository, t *model.NotificationType) (int, error) {
	if !t.IsActive {
		return 0, nil
	}
	userIDs, err := repo.Preference.ListUserIDsMissing(ctx, t.NotificationTypeID)
	if err != nil {
		return 0, err
	}
	prefs := make([]model.UserNotificationPreference, 0, len(userIDs))
	for _, id := range userIDs {
		prefs = append(prefs, defaultPreference(id, t))
	}
	if err := repo.Preference.BatchCreate(ctx, prefs); err != nil {
		return 0, err
	}
	return len(prefs), nil
}
