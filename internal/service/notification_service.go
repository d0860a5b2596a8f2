package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
	"campus-hub/backend/pkg/metrics"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound          = errors.New("通知不存在")
	ErrNotificationTypeNotFound      = errors.New("通知类型不存在或已停用")
	ErrNotificationRecipientNotFound = errors.New("接收用户不存在")
	ErrNotificationRecipientInactive = errors.New("接收用户已停用")
)

// CreateNotificationInput 创建通知参数
// Context 原样持久化，不会被修改；渲染时额外注入目标用户（键 user）
type CreateNotificationInput struct {
	UserID     string
	TypeCode   string
	Context    map[string]interface{}
	Related    model.RelatedRef
	ActionURL  string
	ActionText string
	SendNow    bool
}

// NotificationSink 通知下沉接口，供扇出协调器调用
type NotificationSink interface {
	// Notify 为单个用户创建通知；未知或停用的类型、停用的用户按空操作处理
	Notify(ctx context.Context, in *CreateNotificationInput) error
}

// NopSink 通知功能关闭时的空实现
type NopSink struct{}

func (NopSink) Notify(context.Context, *CreateNotificationInput) error { return nil }

// UnreadCache 未读数缓存
type UnreadCache interface {
	GetUnreadCount(ctx context.Context, userID string) (int64, bool, error)
	SetUnreadCount(ctx context.Context, userID string, count int64) error
	InvalidateUnreadCount(ctx context.Context, userID string) error
}

// NotificationService 通知业务接口
type NotificationService interface {
	NotificationSink

	// CreateNotification 渲染并持久化一条通知，SendNow 时在提交后同步投递
	CreateNotification(ctx context.Context, in *CreateNotificationInput) (*model.Notification, error)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID, id string) (*dto.NotificationResponse, error)
	MarkAsUnread(ctx context.Context, userID, id string) (*dto.NotificationResponse, error)
	Archive(ctx context.Context, userID, id string) (*dto.NotificationResponse, error)
	// MarkAllAsRead 仅 unread → read
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	// ArchiveAllRead 仅 read → archived
	ArchiveAllRead(ctx context.Context, userID string) (int64, error)
	// Send 管理员向指定用户直接发送通知
	Send(ctx context.Context, req *dto.SendNotificationRequest) (*dto.SendNotificationResponse, error)
}

type notificationService struct {
	repo      *repository.Repository
	deliverer *Deliverer
	cache     UnreadCache
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService 创建 NotificationService 实例
// cache 可为 nil，此时未读数直接查库
func NewNotificationService(repo *repository.Repository, deliverer *Deliverer, cache UnreadCache, logger *zap.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		deliverer: deliverer,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── CreateNotification ──────────────────────

func (s *notificationService) CreateNotification(ctx context.Context, in *CreateNotificationInput) (*model.Notification, error) {
	nt, err := s.repo.NotificationType.GetByCode(ctx, in.TypeCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationTypeNotFound
		}
		s.logger.Error("查询通知类型失败", zap.String("code", in.TypeCode), zap.Error(err))
		return nil, err
	}
	if !nt.IsActive {
		return nil, ErrNotificationTypeNotFound
	}

	user, err := s.repo.User.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationRecipientNotFound
		}
		s.logger.Error("查询接收用户失败", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrNotificationRecipientInactive
	}

	data := renderData(in.Context, user)

	typeID := nt.NotificationTypeID
	n := &model.Notification{
		UserID:             user.UserID,
		NotificationTypeID: &typeID,
		Title:              Render(nt.TitleTemplate, data),
		Body:               Render(nt.BodyTemplate, data),
		ActionURL:          in.ActionURL,
		ActionText:         in.ActionText,
		Status:             model.StatusUnread,
	}
	if len(in.Context) > 0 {
		n.Context = datatypes.JSONMap(in.Context)
	}
	n.SetRelated(in.Related)

	if err := s.persist(ctx, n); err != nil {
		s.logger.Error("创建通知失败",
			zap.String("user_id", user.UserID),
			zap.String("code", nt.Code),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.NotificationsCreated.WithLabelValues(nt.Code).Inc()
	s.invalidateUnread(ctx, user.UserID)

	if in.SendNow && s.deliverer != nil {
		flags := ResolvePreference(s.lookupPreference(ctx, user.UserID, nt.NotificationTypeID), nt)
		s.deliverer.Deliver(ctx, n, user, nt, flags, data)
	}

	return n, nil
}

// persist 在事务中写入通知记录
func (s *notificationService) persist(ctx context.Context, n *model.Notification) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := s.repo.WithTx(tx).Notification.Create(ctx, n); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

// lookupPreference 读取偏好行，缺行或查询失败时返回 nil（按类型默认值处理）
func (s *notificationService) lookupPreference(ctx context.Context, userID, typeID string) *model.UserNotificationPreference {
	pref, err := s.repo.Preference.Get(ctx, userID, typeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询通知偏好失败，按默认值处理", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return pref
}

// renderData 合并上下文与目标用户
func renderData(ctxData map[string]interface{}, user *model.User) map[string]interface{} {
	data := make(map[string]interface{}, len(ctxData)+1)
	for k, v := range ctxData {
		data[k] = v
	}
	data["user"] = map[string]interface{}{
		"id":    user.UserID,
		"name":  user.DisplayName(),
		"email": user.Email,
	}
	return data
}

// ────────────────────── Notify ──────────────────────

func (s *notificationService) Notify(ctx context.Context, in *CreateNotificationInput) error {
	_, err := s.CreateNotification(ctx, in)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotificationTypeNotFound):
		s.logger.Warn("通知类型不存在或已停用，跳过", zap.String("code", in.TypeCode), zap.String("user_id", in.UserID))
		return nil
	case errors.Is(err, ErrNotificationRecipientInactive), errors.Is(err, ErrNotificationRecipientNotFound):
		s.logger.Debug("接收用户不可用，跳过", zap.String("user_id", in.UserID))
		return nil
	default:
		return err
	}
}

// ────────────────────── List ──────────────────────

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toNotificationResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── UnreadCount ──────────────────────

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		count, ok, err := s.cache.GetUnreadCount(ctx, userID)
		if err != nil {
			s.logger.Warn("读取未读数缓存失败", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			return count, nil
		}
	}

	count, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetUnreadCount(ctx, userID, count); err != nil {
			s.logger.Warn("写入未读数缓存失败", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return count, nil
}

// ────────────────────── 单条状态迁移 ──────────────────────

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id string) (*dto.NotificationResponse, error) {
	return s.transition(ctx, userID, id, func(n *model.Notification) (bool, error) {
		return n.MarkRead(s.now())
	})
}

func (s *notificationService) MarkAsUnread(ctx context.Context, userID, id string) (*dto.NotificationResponse, error) {
	return s.transition(ctx, userID, id, func(n *model.Notification) (bool, error) {
		return n.MarkUnread()
	})
}

func (s *notificationService) Archive(ctx context.Context, userID, id string) (*dto.NotificationResponse, error) {
	return s.transition(ctx, userID, id, func(n *model.Notification) (bool, error) {
		return n.Archive(s.now())
	})
}

func (s *notificationService) transition(ctx context.Context, userID, id string, apply func(*model.Notification) (bool, error)) (*dto.NotificationResponse, error) {
	n, err := s.repo.Notification.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		s.logger.Error("查询通知失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	// 不暴露他人通知的存在
	if n.UserID != userID {
		return nil, ErrNotificationNotFound
	}

	changed, err := apply(n)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.repo.Notification.Update(ctx, n); err != nil {
			s.logger.Error("更新通知状态失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		s.invalidateUnread(ctx, userID)
	}

	return toNotificationResponse(n), nil
}

// ────────────────────── 批量操作 ──────────────────────

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	affected, err := s.repo.Notification.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		s.logger.Error("批量标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	s.invalidateUnread(ctx, userID)
	return affected, nil
}

func (s *notificationService) ArchiveAllRead(ctx context.Context, userID string) (int64, error) {
	affected, err := s.repo.Notification.ArchiveAllRead(ctx, userID, s.now())
	if err != nil {
		s.logger.Error("批量归档失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return affected, nil
}

// ────────────────────── Send ──────────────────────

func (s *notificationService) Send(ctx context.Context, req *dto.SendNotificationRequest) (*dto.SendNotificationResponse, error) {
	sendNow := true
	if req.SendNow != nil {
		sendNow = *req.SendNow
	}

	resp := &dto.SendNotificationResponse{}
	for _, userID := range dedupe(req.UserIDs, "") {
		_, err := s.CreateNotification(ctx, &CreateNotificationInput{
			UserID:     userID,
			TypeCode:   req.TypeCode,
			Context:    req.Context,
			ActionURL:  req.ActionURL,
			ActionText: req.ActionText,
			SendNow:    sendNow,
		})
		switch {
		case err == nil:
			resp.Created++
		case errors.Is(err, ErrNotificationTypeNotFound):
			return nil, err
		case errors.Is(err, ErrNotificationRecipientNotFound), errors.Is(err, ErrNotificationRecipientInactive):
			resp.Skipped = append(resp.Skipped, userID)
		default:
			s.logger.Error("管理员发送通知失败", zap.String("user_id", userID), zap.Error(err))
			resp.Skipped = append(resp.Skipped, userID)
		}
	}

	s.logger.Info("管理员发送通知",
		zap.String("code", req.TypeCode),
		zap.Int("created", resp.Created),
		zap.Int("skipped", len(resp.Skipped)),
	)
	return resp, nil
}

// ── 辅助函数 ──

func (s *notificationService) invalidateUnread(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUnreadCount(ctx, userID); err != nil {
		s.logger.Warn("清除未读数缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
}

func toNotificationResponse(n *model.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:          n.NotificationID,
		Title:       n.Title,
		Body:        n.Body,
		Context:     n.Context,
		RelatedKind: string(n.RelatedKind),
		ActionURL:   n.ActionURL,
		ActionText:  n.ActionText,
		Status:      string(n.Status),
		SentByEmail: n.SentByEmail,
		SentByPush:  n.SentByPush,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
	if n.NotificationType != nil {
		resp.TypeCode = n.NotificationType.Code
	}
	if n.RelatedID != nil {
		resp.RelatedID = *n.RelatedID
	}
	if n.ReadAt != nil {
		resp.ReadAt = n.ReadAt.Format(time.RFC3339)
	}
	if n.ArchivedAt != nil {
		resp.ArchivedAt = n.ArchivedAt.Format(time.RFC3339)
	}
	return resp
}

// dedupe 保序去重并排除 exclude
func dedupe(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
