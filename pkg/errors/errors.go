package errors

import "errors"

// ErrInvalidTransition 状态机非法迁移（如已归档通知再次标记为已读）
var ErrInvalidTransition = errors.New("当前状态不允许该操作")

// ErrNotConfigured 外部通道未配置（邮件 / 推送），调用方应按空操作处理
var ErrNotConfigured = errors.New("通道未配置")
