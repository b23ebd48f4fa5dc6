package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"attend-ease/backend/internal/attendance"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "课程统计"：每门课一行，低于 75% 的出勤率标红
//   - Sheet "考勤明细"：全部已标记记录，按日期、时间排序
type ExportService interface {
	// ExportAttendance 导出学生考勤报表为 Excel，返回内容与建议文件名
	ExportAttendance(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	attendance AttendanceService
	profile    ProfileService
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(attendanceSvc AttendanceService, profileSvc ProfileService, logger *zap.Logger) ExportService {
	return &exportService{attendance: attendanceSvc, profile: profileSvc, logger: logger}
}

var statusLabels = map[string]string{
	string(attendance.StatusPresent):   "出勤",
	string(attendance.StatusAbsent):    "缺勤",
	string(attendance.StatusCancelled): "停课",
}

func (s *exportService) ExportAttendance(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	profile, err := s.profile.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	report, err := s.attendance.Report(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	warnStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})

	// ── 课程统计 ──
	courseSheet := "课程统计"
	idx, _ := f.NewSheet(courseSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	title := fmt.Sprintf("%s (%s) %s-%s 考勤报表", profile.Name, profile.RollNumber, report.Cohort.Branch, report.Cohort.Group)
	f.SetCellValue(courseSheet, "A1", title)
	f.MergeCell(courseSheet, "A1", "F1")
	f.SetCellStyle(courseSheet, "A1", "A1", headerStyle)

	headers := []string{"课程代码", "课程名称", "出勤", "缺勤", "停课", "出勤率"}
	for i, h := range headers {
		f.SetCellValue(courseSheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(courseSheet, "A2", "F2", headerStyle)
	f.SetColWidth(courseSheet, "A", "A", 14)
	f.SetColWidth(courseSheet, "B", "B", 28)
	f.SetColWidth(courseSheet, "C", "F", 10)

	row := 3
	for _, c := range report.Courses {
		f.SetCellValue(courseSheet, cell("A", row), c.SubjectCode)
		f.SetCellValue(courseSheet, cell("B", row), c.Name)
		f.SetCellValue(courseSheet, cell("C", row), c.Present)
		f.SetCellValue(courseSheet, cell("D", row), c.Absent)
		f.SetCellValue(courseSheet, cell("E", row), c.Cancelled)
		f.SetCellValue(courseSheet, cell("F", row), fmt.Sprintf("%.1f%%", c.Percentage))
		if c.Percentage < attendance.EligibilityThreshold {
			f.SetCellStyle(courseSheet, cell("F", row), cell("F", row), warnStyle)
		}
		row++
	}

	row++
	f.SetCellValue(courseSheet, cell("A", row), "合计")
	f.SetCellValue(courseSheet, cell("C", row), report.Summary.Present)
	f.SetCellValue(courseSheet, cell("D", row), report.Summary.Absent)
	f.SetCellValue(courseSheet, cell("E", row), report.Summary.Cancelled)
	f.SetCellValue(courseSheet, cell("F", row), fmt.Sprintf("%.1f%%", report.Summary.Percentage))

	// ── 考勤明细 ──
	detailSheet := "考勤明细"
	f.NewSheet(detailSheet)
	for i, h := range []string{"日期", "时间", "课程代码", "状态", "标记时间"} {
		f.SetCellValue(detailSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detailSheet, "A1", "E1", headerStyle)
	f.SetColWidth(detailSheet, "A", "A", 12)
	f.SetColWidth(detailSheet, "C", "C", 14)
	f.SetColWidth(detailSheet, "E", "E", 22)

	row = 2
	for _, r := range report.Records {
		status := ""
		if r.Status != nil {
			status = statusLabels[*r.Status]
		}
		f.SetCellValue(detailSheet, cell("A", row), r.ClassDate)
		f.SetCellValue(detailSheet, cell("B", row), r.TimeStart)
		f.SetCellValue(detailSheet, cell("C", row), r.SubjectCode)
		f.SetCellValue(detailSheet, cell("D", row), status)
		f.SetCellValue(detailSheet, cell("E", row), r.MarkedAt)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤报表_%s.xlsx", profile.RollNumber)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
