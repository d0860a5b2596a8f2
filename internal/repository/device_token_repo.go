package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
)

// DeviceTokenRepository 推送设备数据访问接口
type DeviceTokenRepository interface {
	Create(ctx context.Context, d *model.DeviceToken) error
	GetByUserAndToken(ctx context.Context, userID, token string) (*model.DeviceToken, error)
	Update(ctx context.Context, d *model.DeviceToken) error
	ListActiveByUser(ctx context.Context, userID string) ([]model.DeviceToken, error)
	// Deactivate 置 is_active=false，返回受影响行数
	Deactivate(ctx context.Context, userID, token string) (int64, error)
	DeactivateByID(ctx context.Context, id string) error
	TouchLastUsed(ctx context.Context, id string, now time.Time) error
}

type deviceTokenRepo struct {
	db *gorm.DB
}

// NewDeviceTokenRepo 创建 DeviceTokenRepository 实例
func NewDeviceTokenRepo(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepo{db: db}
}

func (r *deviceTokenRepo) Create(ctx context.Context, d *model.DeviceToken) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deviceTokenRepo) GetByUserAndToken(ctx context.Context, userID, token string) (*model.DeviceToken, error) {
	var d model.DeviceToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deviceTokenRepo) Update(ctx context.Context, d *model.DeviceToken) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *deviceTokenRepo) ListActiveByUser(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	var list []model.DeviceToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

func (r *deviceTokenRepo) Deactivate(ctx context.Context, userID, token string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.DeviceToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *deviceTokenRepo) DeactivateByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.DeviceToken{}).
		Where("device_token_id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error
}

func (r *deviceTokenRepo) TouchLastUsed(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.DeviceToken{}).
		Where("device_token_id = ?", id).
		Update("last_used_at", now).Error
}
