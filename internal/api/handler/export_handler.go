package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/service"
	"campus-hub/backend/pkg/response"
)

const (
	reportDateLayout = "2006-01-02"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportNotificationReport 导出通知投递报表
// GET /api/v1/export/notification-report?from=2026-09-01&to=2026-09-30
// to 为闭区间，包含当天全部记录
func (h *ExportHandler) ExportNotificationReport(c *gin.Context) {
	var req dto.NotificationReportRequest
	if !bindQuery(c, &req, 10001) {
		return
	}

	from, to, ok := parseReportRange(c, &req)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportNotificationReport(c.Request.Context(), from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseReportRange(c *gin.Context, req *dto.NotificationReportRequest) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if req.From != "" {
		t, err := time.ParseInLocation(reportDateLayout, req.From, time.UTC)
		if err != nil {
			response.BadRequest(c, 10001, "from 日期格式错误")
			return nil, nil, false
		}
		from = &t
	}
	if req.To != "" {
		t, err := time.ParseInLocation(reportDateLayout, req.To, time.UTC)
		if err != nil {
			response.BadRequest(c, 10001, "to 日期格式错误")
			return nil, nil, false
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		response.BadRequest(c, 10001, "from 不能晚于 to")
		return nil, nil, false
	}
	return from, to, true
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 27001, "所选时间段内没有通知记录")
	default:
		response.InternalError(c)
	}
}
