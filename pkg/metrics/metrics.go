// Package metrics 定义通知管线的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campus_hub"

// 投递结果标签
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

var (
	// NotificationsCreated 按通知类型统计创建的通知数
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notification",
		Name:      "created_total",
		Help:      "Notifications persisted, by type code.",
	}, []string{"type"})

	// DeliveryAttempts 按通道与结果统计投递尝试
	DeliveryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notification",
		Name:      "delivery_attempts_total",
		Help:      "Delivery attempts, by channel (email|push) and result.",
	}, []string{"channel", "result"})

	// FanoutRecipients 每次扇出的收件人数分布
	FanoutRecipients = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "fanout",
		Name:      "recipients",
		Help:      "Recipients resolved per fan-out event.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	}, []string{"event"})

	// HTTPRequests 按路由与状态码统计请求
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by route and status.",
	}, []string{"method", "route", "status"})
)
