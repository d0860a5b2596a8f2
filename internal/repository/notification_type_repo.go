package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-hub/backend/internal/model"
)

// NotificationTypeRepository 通知类型数据访问接口
type NotificationTypeRepository interface {
	Create(ctx context.Context, t *model.NotificationType) error
	GetByID(ctx context.Context, id string) (*model.NotificationType, error)
	GetByCode(ctx context.Context, code string) (*model.NotificationType, error)
	List(ctx context.Context, includeInactive bool) ([]model.NotificationType, error)
	Update(ctx context.Context, t *model.NotificationType) error
}

type notificationTypeRepo struct {
	db *gorm.DB
}

// NewNotificationTypeRepo 创建 NotificationTypeRepository 实例
func NewNotificationTypeRepo(db *gorm.DB) NotificationTypeRepository {
	return &notificationTypeRepo{db: db}
}

func (r *notificationTypeRepo) Create(ctx context.Context, t *model.NotificationType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *notificationTypeRepo) GetByID(ctx context.Context, id string) (*model.NotificationType, error) {
	var t model.NotificationType
	if err := r.db.WithContext(ctx).Where("notification_type_id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *notificationTypeRepo) GetByCode(ctx context.Context, code string) (*model.NotificationType, error) {
	var t model.NotificationType
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *notificationTypeRepo) List(ctx context.Context, includeInactive bool) ([]model.NotificationType, error) {
	var types []model.NotificationType
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("code ASC").Find(&types).Error
	return types, err
}

func (r *notificationTypeRepo) Update(ctx context.Context, t *model.NotificationType) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// ── 邮件模板覆盖 ──

// NotificationTemplateRepository 通知邮件模板数据访问接口
type NotificationTemplateRepository interface {
	GetByTypeID(ctx context.Context, typeID string) (*model.NotificationTemplate, error)
	Upsert(ctx context.Context, tpl *model.NotificationTemplate) error
}

type notificationTemplateRepo struct {
	db *gorm.DB
}

// NewNotificationTemplateRepo 创建 NotificationTemplateRepository 实例
func NewNotificationTemplateRepo(db *gorm.DB) NotificationTemplateRepository {
	return &notificationTemplateRepo{db: db}
}

func (r *notificationTemplateRepo) GetByTypeID(ctx context.Context, typeID string) (*model.NotificationTemplate, error) {
	var tpl model.NotificationTemplate
	if err := r.db.WithContext(ctx).Where("notification_type_id = ?", typeID).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *notificationTemplateRepo) Upsert(ctx context.Context, tpl *model.NotificationTemplate) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_type_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email_subject", "email_html_body", "email_text_body", "updated_at"}),
	}).Create(tpl).Error
}
