package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"attend-ease/backend/config"
	"attend-ease/backend/internal/model"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Calendar: config.CalendarConfig{
			WeekendDays: []string{"Saturday", "Sunday"},
			Timezone:    "UTC",
		},
	}
}

func civilDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("解析日期 %q 失败: %v", s, err)
	}
	return d
}

// setupTestServices 构建完整的 Service 聚合并写入基础数据：
//   - 学期 2024-02-01 ~ 2024-06-30（激活）
//   - 节假日 2024-03-04 校庆日（周一）；考试周 2024-04-29 ~ 2024-05-03
//   - 课表：周一 CS101 09:00、CS102 10:00（CSB-A）、CS102L 10:00（CSB-B）、午休 12:00；周三 CS101 09:00
//   - 学生 u1 为 CSB-A
func setupTestServices(t *testing.T) (*Service, *mockRepos) {
	t.Helper()
	repo, m := newMockRepository()

	m.semester.semesters["sem-1"] = &model.Semester{
		SemesterID: "sem-1",
		Name:       "2024 春季学期",
		StartDate:  civilDate(t, "2024-02-01"),
		EndDate:    civilDate(t, "2024-06-30"),
		IsActive:   true,
	}
	m.calendar.holidays = []model.Holiday{{Date: civilDate(t, "2024-03-04"), Name: "校庆日"}}
	m.calendar.exams = []model.ExamPeriod{{StartDate: civilDate(t, "2024-04-29"), EndDate: civilDate(t, "2024-05-03"), Type: "期中考试"}}
	m.classSlot.slots = []model.ClassSlot{
		{Position: 0, Branch: "ALL", Group: "ALL", SubjectCode: "CS101", ClassName: "数据结构", Classroom: "A101", DayOfWeek: 1, TimeStart: "09:00", TimeEnd: "10:00"},
		{Position: 1, Branch: "CSB", Group: "A", SubjectCode: "CS102", ClassName: "离散数学", Classroom: "A102", DayOfWeek: 1, TimeStart: "10:00", TimeEnd: "11:00"},
		{Position: 2, Branch: "CSB", Group: "B", SubjectCode: "CS102L", ClassName: "离散数学习题", Classroom: "A103", DayOfWeek: 1, TimeStart: "10:00", TimeEnd: "11:00"},
		{Position: 3, Branch: "ALL", Group: "ALL", SubjectCode: "BREAK", ClassName: "午休", DayOfWeek: 1, TimeStart: "12:00", TimeEnd: "13:00"},
		{Position: 4, Branch: "ALL", Group: "ALL", SubjectCode: "CS101", ClassName: "数据结构", Classroom: "A101", DayOfWeek: 3, TimeStart: "09:00", TimeEnd: "10:00"},
	}
	m.profile.profiles["u1"] = &model.StudentProfile{
		UserID:          "u1",
		CollegeID:       "C001",
		Name:            "张三",
		Year:            "2",
		Branch:          "CSB",
		RollNumber:      "21CS001",
		Group:           "A",
		CurrentSemester: 4,
		VersionedModel:  model.VersionedModel{Version: 1},
	}

	return NewService(testConfig(), repo, nil, zap.NewNop()), m
}

// putRecord 直接写入一条考勤记录
func putRecord(t *testing.T, m *mockRepos, code, date, start, status string) {
	t.Helper()
	recordID := code + "_" + date
	if start != "" {
		recordID += "_" + start[:2] + start[3:]
	}
	m.attendance.records[attendanceKey("u1", recordID)] = &model.AttendanceRecord{
		StudentID:   "u1",
		RecordID:    recordID,
		SubjectCode: code,
		ClassDate:   civilDate(t, date),
		TimeStart:   start,
		Status:      status,
		MarkedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func strPtr(s string) *string { return &s }
