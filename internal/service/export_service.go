package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"campus-hub/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("所选时间段内没有通知记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 投递报表按通知类型汇总：状态分布与邮件 / 推送送达数。
// 以 bytes.Buffer 返回，由 Handler 设置响应头后写出。
type ExportService interface {
	// ExportNotificationReport from / to 为空时不限；to 为开区间
	ExportNotificationReport(ctx context.Context, from, to *time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var reportHeaders = []string{"类型编码", "类型名称", "总数", "未读", "已读", "已归档", "邮件已发送", "推送已发送", "邮件送达率"}

func (s *exportService) ExportNotificationReport(ctx context.Context, from, to *time.Time) (*bytes.Buffer, string, error) {
	stats, err := s.repo.Notification.StatsByType(ctx, from, to)
	if err != nil {
		s.logger.Error("查询通知统计失败", zap.Error(err))
		return nil, "", err
	}
	if len(stats) == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "投递统计"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 20)
	f.SetColWidth(sheet, "C", "I", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheet, "A1", fmt.Sprintf("通知投递统计（%s）", periodLabel(from, to)))
	f.MergeCell(sheet, "A1", "I1")

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A2", "I2", headerStyle)

	var total repository.NotificationStat
	for i, st := range stats {
		row := i + 3
		code := st.TypeCode
		if code == "" {
			code = "(已删除类型)"
		}
		values := []interface{}{code, st.TypeName, st.Total, st.Unread, st.Read, st.Archived, st.SentByEmail, st.SentByPush, rate(st.SentByEmail, st.Total)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}

		total.Total += st.Total
		total.Unread += st.Unread
		total.Read += st.Read
		total.Archived += st.Archived
		total.SentByEmail += st.SentByEmail
		total.SentByPush += st.SentByPush
	}

	// 合计行
	sumRow := len(stats) + 3
	sums := []interface{}{"合计", "", total.Total, total.Unread, total.Read, total.Archived, total.SentByEmail, total.SentByPush, rate(total.SentByEmail, total.Total)}
	for col, v := range sums {
		cell, _ := excelize.CoordinatesToCellName(col+1, sumRow)
		f.SetCellValue(sheet, cell, v)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("notification_report_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

func periodLabel(from, to *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case from != nil && to != nil:
		return from.Format(layout) + " ~ " + to.Format(layout)
	case from != nil:
		return from.Format(layout) + " 起"
	case to != nil:
		return "截至 " + to.Format(layout)
	default:
		return "全部"
	}
}

func rate(part, total int64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}
