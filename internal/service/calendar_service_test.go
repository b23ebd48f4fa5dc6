package service

import (
	"context"
	"errors"
	"testing"

	"attend-ease/backend/internal/dto"
)

func TestCalendarService_Classify(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	tests := []struct {
		date       string
		holiday    bool
		exam       bool
		weekend    bool
		label      string
		inSemester bool
	}{
		{"2024-03-04", true, false, false, "校庆日", true},
		{"2024-04-30", false, true, false, "期中考试", true},
		{"2024-03-09", false, false, true, "Saturday", true},
		{"2024-03-05", false, false, false, "", true},
		{"2024-08-01", false, false, false, "", false},
	}
	for _, tt := range tests {
		got, err := svc.Calendar.Classify(ctx, tt.date)
		if err != nil {
			t.Fatalf("%s: Classify 应成功: %v", tt.date, err)
		}
		if got.IsHoliday != tt.holiday || got.IsExam != tt.exam || got.IsWeekend != tt.weekend {
			t.Errorf("%s: 分类不符: %+v", tt.date, got)
		}
		if got.Label != tt.label || got.InSemester != tt.inSemester {
			t.Errorf("%s: 期望 label=%q in_semester=%v，实际 %+v", tt.date, tt.label, tt.inSemester, got)
		}
	}
}

func TestCalendarService_Classify_InvalidDate(t *testing.T) {
	svc, _ := setupTestServices(t)

	if _, err := svc.Calendar.Classify(context.Background(), "03/04/2024"); !errors.Is(err, ErrCalendarDateInvalid) {
		t.Errorf("期望 ErrCalendarDateInvalid，实际: %v", err)
	}
}

func TestCalendarService_IndexIsCached(t *testing.T) {
	svc, m := setupTestServices(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Calendar.Index(ctx); err != nil {
			t.Fatalf("Index 应成功: %v", err)
		}
	}
	if m.calendar.loads != 1 {
		t.Errorf("快照只应加载一次，实际 %d 次", m.calendar.loads)
	}

	if err := svc.Calendar.Reload(ctx); err != nil {
		t.Fatalf("Reload 应成功: %v", err)
	}
	if m.calendar.loads != 2 {
		t.Errorf("Reload 应重新加载，实际 %d 次", m.calendar.loads)
	}
}

func TestCalendarService_ReplaceHolidays(t *testing.T) {
	svc, m := setupTestServices(t)
	ctx := context.Background()

	table := &dto.HolidayTable{Holidays: []dto.HolidayDTO{
		{Date: "2024-05-01", Name: "劳动节"},
		{Date: "2024-10-01", Name: "国庆节"},
	}}
	if err := svc.Calendar.ReplaceHolidays(ctx, table, "admin-001"); err != nil {
		t.Fatalf("ReplaceHolidays 应成功: %v", err)
	}
	if len(m.calendar.holidays) != 2 {
		t.Errorf("期望 2 个节假日，实际 %d", len(m.calendar.holidays))
	}

	got, err := svc.Calendar.Classify(ctx, "2024-03-04")
	if err != nil {
		t.Fatalf("Classify 应成功: %v", err)
	}
	if got.IsHoliday {
		t.Error("替换后旧节假日不应再生效")
	}

	list, err := svc.Calendar.ListHolidays(ctx)
	if err != nil || len(list) != 2 || list[0].Date != "2024-05-01" {
		t.Errorf("节假日列表不符: %+v / %v", list, err)
	}
}

func TestCalendarService_ReplaceHolidays_Invalid(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	dup := &dto.HolidayTable{Holidays: []dto.HolidayDTO{
		{Date: "2024-05-01", Name: "劳动节"},
		{Date: "2024-05-01", Name: "重复"},
	}}
	if err := svc.Calendar.ReplaceHolidays(ctx, dup, "admin-001"); !errors.Is(err, ErrCalendarDuplicate) {
		t.Errorf("期望 ErrCalendarDuplicate，实际: %v", err)
	}

	bad := &dto.HolidayTable{Holidays: []dto.HolidayDTO{{Date: "2024-13-01", Name: "无效"}}}
	if err := svc.Calendar.ReplaceHolidays(ctx, bad, "admin-001"); !errors.Is(err, ErrCalendarTableInvalid) {
		t.Errorf("期望 ErrCalendarTableInvalid，实际: %v", err)
	}
}

func TestCalendarService_ReplaceExams(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	reversed := &dto.ExamTable{Periods: []dto.ExamPeriodDTO{{Start: "2024-06-10", End: "2024-06-01", Type: "期末考试"}}}
	if err := svc.Calendar.ReplaceExams(ctx, reversed, "admin-001"); !errors.Is(err, ErrCalendarRangeInvalid) {
		t.Errorf("期望 ErrCalendarRangeInvalid，实际: %v", err)
	}

	table := &dto.ExamTable{Periods: []dto.ExamPeriodDTO{{Start: "2024-06-10", End: "2024-06-14", Type: "期末考试"}}}
	if err := svc.Calendar.ReplaceExams(ctx, table, "admin-001"); err != nil {
		t.Fatalf("ReplaceExams 应成功: %v", err)
	}
	exams, err := svc.Calendar.ListExams(ctx)
	if err != nil || len(exams) != 1 || exams[0].Type != "期末考试" {
		t.Errorf("考试周列表不符: %+v / %v", exams, err)
	}
}
