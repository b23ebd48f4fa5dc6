package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attend-ease/backend/internal/attendance"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
)

// ── model ⇄ 核心类型 ⇄ DTO 转换 ──

func slotFromModel(m model.ClassSlot) attendance.ClassSlot {
	return attendance.ClassSlot{
		SubjectCode: m.SubjectCode,
		DisplayName: m.ClassName,
		Room:        m.Classroom,
		Weekday:     time.Weekday(m.DayOfWeek),
		StartTime:   m.TimeStart,
		EndTime:     m.TimeEnd,
		Branch:      m.Branch,
		Group:       m.Group,
		Semester:    m.Semester,
	}
}

func slotResponse(s attendance.ClassSlot) dto.SlotResponse {
	return dto.SlotResponse{
		SubjectCode: s.SubjectCode,
		ClassName:   s.DisplayName,
		Classroom:   s.Room,
		Day:         s.Weekday.String(),
		TimeStart:   s.StartTime,
		TimeEnd:     s.EndTime,
		Branch:      s.Branch,
		Group:       s.Group,
		IsBreak:     s.IsBreak(),
	}
}

func slotResponses(slots []attendance.ClassSlot) []dto.SlotResponse {
	out := make([]dto.SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse(s))
	}
	return out
}

func markFromRecord(r model.AttendanceRecord) attendance.Mark {
	return attendance.Mark{
		Key: attendance.MarkKey{
			SubjectCode: r.SubjectCode,
			ClassDate:   attendance.FormatDate(r.ClassDate),
			TimeStart:   r.TimeStart,
		},
		Status:   attendance.Status(r.Status),
		MarkedAt: r.MarkedAt,
	}
}

func marksFromRecords(records []model.AttendanceRecord) []attendance.Mark {
	marks := make([]attendance.Mark, 0, len(records))
	for _, r := range records {
		marks = append(marks, markFromRecord(r))
	}
	return marks
}

func recordFromMark(studentID string, m attendance.Mark, classDate time.Time) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		StudentID:   studentID,
		RecordID:    m.Key.RecordID(),
		SubjectCode: m.Key.SubjectCode,
		ClassDate:   classDate,
		TimeStart:   m.Key.TimeStart,
		Status:      string(m.Status),
		MarkedAt:    m.MarkedAt,
	}
}

func recordResponse(studentID string, m attendance.Mark) dto.AttendanceRecordResponse {
	resp := dto.AttendanceRecordResponse{
		ID:          m.Key.RecordID(),
		StudentID:   studentID,
		SubjectCode: m.Key.SubjectCode,
		ClassDate:   m.Key.ClassDate,
		TimeStart:   m.Key.TimeStart,
		Status:      statusPtr(m.Status),
	}
	if !m.MarkedAt.IsZero() {
		resp.MarkedAt = m.MarkedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// statusPtr 未标记时返回 nil，JSON 中输出 null
func statusPtr(s attendance.Status) *string {
	if !s.Marked() {
		return nil
	}
	v := string(s)
	return &v
}

func subjectStatResponse(row attendance.CourseRow) dto.SubjectStatResponse {
	return dto.SubjectStatResponse{
		SubjectCode: row.SubjectCode,
		Name:        row.Name,
		Known:       row.Known,
		Present:     row.Stat.Present,
		Absent:      row.Stat.Absent,
		Cancelled:   row.Stat.Cancelled,
		Percentage:  row.Percentage,
	}
}

// ── 学期窗口 ──

// 学期窗口来源
const (
	windowSourceSemester  = "semester"
	windowSourceTimetable = "timetable"
	windowSourceNone      = "none"
)

// loadSemesterWindow 考勤计算使用的学期窗口，nil 表示全部日期都在学期内
func loadSemesterWindow(ctx context.Context, repo *repository.Repository, logger *zap.Logger) (*attendance.SemesterWindow, error) {
	w, _, _, err := resolveSemesterWindow(ctx, repo, logger)
	return w, err
}

// resolveSemesterWindow 按顺序取学期窗口：激活学期 → 最近一次课表文档的 semesterConfig
// 返回窗口、命中的激活学期（可为 nil）与来源
func resolveSemesterWindow(ctx context.Context, repo *repository.Repository, logger *zap.Logger) (*attendance.SemesterWindow, *model.Semester, string, error) {
	sem, err := repo.Semester.GetCurrent(ctx)
	switch {
	case err == nil:
		return &attendance.SemesterWindow{Start: sem.StartDate, End: sem.EndDate}, sem, windowSourceSemester, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		logger.Error("查询当前学期失败", zap.Error(err))
		return nil, nil, "", err
	}

	w, err := timetableWindow(ctx, repo, logger)
	if err != nil {
		return nil, nil, "", err
	}
	if w == nil {
		return nil, nil, windowSourceNone, nil
	}
	return w, nil, windowSourceTimetable, nil
}

// timetableWindow 最近一次课表快照中的 semesterConfig；没有快照或未配置时返回 nil
func timetableWindow(ctx context.Context, repo *repository.Repository, logger *zap.Logger) (*attendance.SemesterWindow, error) {
	rev, err := repo.Revision.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("查询课表修订失败", zap.Error(err))
		return nil, err
	}

	var doc dto.TimetableDocument
	if err := json.Unmarshal(rev.Document, &doc); err != nil {
		logger.Warn("课表快照解析失败，忽略学期窗口", zap.String("revision_id", rev.RevisionID), zap.Error(err))
		return nil, nil
	}
	return windowFromConfig(doc.SemesterConfig), nil
}

// windowFromConfig semesterConfig 缺失或格式错误时返回 nil
func windowFromConfig(cfg *dto.SemesterConfig) *attendance.SemesterWindow {
	if cfg == nil {
		return nil
	}
	start, err := attendance.ParseDate(cfg.Start)
	if err != nil {
		return nil
	}
	end, err := attendance.ParseDate(cfg.End)
	if err != nil {
		return nil
	}
	return &attendance.SemesterWindow{Start: start, End: end}
}
