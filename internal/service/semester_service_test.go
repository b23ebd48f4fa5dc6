package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestSemesterService() (SemesterService, *mockSemesterRepo) {
	svc, mocks := setupSemesterServiceWithRepos()
	return svc, mocks.semester
}

func setupSemesterServiceWithRepos() (SemesterService, *mockRepos) {
	repo, mocks := newMockRepository()
	svc := NewSemesterService(repo, newTimetableCache(nil, 0, zap.NewNop()), zap.NewNop())
	return svc, mocks
}

// putTimetableConfig 写入一份只含 semesterConfig 的课表快照
func putTimetableConfig(mocks *mockRepos, start, end string) {
	doc := fmt.Sprintf(`{"semesterConfig":{"start":%q,"end":%q},"classes":[]}`, start, end)
	mocks.revision.revisions = append(mocks.revision.revisions, model.TimetableRevision{
		RevisionID: "rev-config",
		Document:   datatypes.JSON(doc),
	})
}

// ── Create 测试 ──

func TestSemesterService_Create_Success(t *testing.T) {
	svc, _ := setupTestSemesterService()

	req := &dto.CreateSemesterRequest{
		Name:      "2025-2026学年第二学期",
		StartDate: "2026-02-20",
		EndDate:   "2026-07-10",
	}

	result, err := svc.Create(context.Background(), req, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "2025-2026学年第二学期" {
		t.Errorf("期望Name=2025-2026学年第二学期，实际=%s", result.Name)
	}
	if result.IsActive {
		t.Error("新创建学期不应默认激活")
	}
}

func TestSemesterService_Create_InvalidDate(t *testing.T) {
	svc, _ := setupTestSemesterService()

	// 结束日期早于开始日期
	req := &dto.CreateSemesterRequest{
		Name:      "测试学期",
		StartDate: "2026-07-10",
		EndDate:   "2026-02-20",
	}

	_, err := svc.Create(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrSemesterDateInvalid) {
		t.Errorf("期望 ErrSemesterDateInvalid，实际: %v", err)
	}
}

func TestSemesterService_Create_BadDateFormat(t *testing.T) {
	svc, _ := setupTestSemesterService()

	req := &dto.CreateSemesterRequest{
		Name:      "测试学期",
		StartDate: "invalid-date",
		EndDate:   "2026-07-10",
	}

	_, err := svc.Create(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrSemesterDateInvalid) {
		t.Errorf("期望 ErrSemesterDateInvalid，实际: %v", err)
	}
}

func TestSemesterService_Create_Overlap(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "春季学期",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}

	req := &dto.CreateSemesterRequest{
		Name:      "重叠学期",
		StartDate: "2026-07-01",
		EndDate:   "2026-12-31",
	}

	_, err := svc.Create(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrSemesterDateOverlap) {
		t.Errorf("期望 ErrSemesterDateOverlap，实际: %v", err)
	}
}

// ── Get 测试 ──

func TestSemesterService_Get_Success(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "测试学期",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}

	result, err := svc.Get(context.Background(), "sem-001")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if result.Name != "测试学期" {
		t.Errorf("期望Name=测试学期，实际=%s", result.Name)
	}
}

func TestSemesterService_Get_NotFound(t *testing.T) {
	svc, _ := setupTestSemesterService()

	_, err := svc.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

// ── Window 测试 ──

func TestSemesterService_Window_ActiveSemester(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "当前学期",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}

	result, err := svc.Window(context.Background())
	if err != nil {
		t.Fatalf("Window 应成功: %v", err)
	}
	if result.Source != "semester" || result.Start != "2026-02-20" || result.End != "2026-07-10" {
		t.Errorf("期望激活学期窗口，实际 %+v", result)
	}
	if result.Semester == nil || result.Semester.Name != "当前学期" {
		t.Errorf("应附带激活学期信息，实际 %+v", result.Semester)
	}
}

func TestSemesterService_Window_FallsBackToTimetable(t *testing.T) {
	svc, mocks := setupSemesterServiceWithRepos()
	putTimetableConfig(mocks, "2026-02-01", "2026-06-30")

	result, err := svc.Window(context.Background())
	if err != nil {
		t.Fatalf("Window 应成功: %v", err)
	}
	if result.Source != "timetable" || result.Start != "2026-02-01" || result.End != "2026-06-30" {
		t.Errorf("期望课表 semesterConfig 窗口，实际 %+v", result)
	}
	if result.Semester != nil {
		t.Error("没有激活学期时不应返回学期信息")
	}
}

func TestSemesterService_Window_None(t *testing.T) {
	svc, _ := setupTestSemesterService()

	result, err := svc.Window(context.Background())
	if err != nil {
		t.Fatalf("没有学期窗口时不应报错: %v", err)
	}
	if result.Source != "none" || result.Start != "" {
		t.Errorf("期望 source=none，实际 %+v", result)
	}
}

// ── Activate 测试 ──

func TestSemesterService_Activate_Success(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "学期A",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
	semesterRepo.semesters["sem-002"] = &model.Semester{
		SemesterID: "sem-002",
		Name:       "学期B",
		StartDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
		IsActive:   false,
	}

	err := svc.Activate(context.Background(), "sem-002", "admin-001")
	if err != nil {
		t.Fatalf("Activate 应成功: %v", err)
	}

	// sem-001 应被取消激活
	if semesterRepo.semesters["sem-001"].IsActive {
		t.Error("sem-001 应被取消激活")
	}
	// sem-002 应被激活
	if !semesterRepo.semesters["sem-002"].IsActive {
		t.Error("sem-002 应被激活")
	}
}

func TestSemesterService_Activate_NotFound(t *testing.T) {
	svc, _ := setupTestSemesterService()

	err := svc.Activate(context.Background(), "nonexistent", "admin-001")
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

func TestSemesterService_Activate_TimetableMismatch(t *testing.T) {
	svc, mocks := setupSemesterServiceWithRepos()
	putTimetableConfig(mocks, "2026-02-01", "2026-06-30")
	mocks.semester.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "学期A",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}

	err := svc.Activate(context.Background(), "sem-001", "admin-001")
	if !errors.Is(err, ErrSemesterTimetableMismatch) {
		t.Fatalf("期望 ErrSemesterTimetableMismatch，实际: %v", err)
	}
	if mocks.semester.semesters["sem-001"].IsActive {
		t.Error("日期不一致时不应激活")
	}
}

func TestSemesterService_Activate_MatchesTimetable(t *testing.T) {
	svc, mocks := setupSemesterServiceWithRepos()
	putTimetableConfig(mocks, "2026-02-20", "2026-07-10")
	mocks.semester.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "学期A",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}

	if err := svc.Activate(context.Background(), "sem-001", "admin-001"); err != nil {
		t.Fatalf("日期一致时应激活成功: %v", err)
	}
	if !mocks.semester.semesters["sem-001"].IsActive {
		t.Error("sem-001 应被激活")
	}
}

// ── Delete 测试 ──

func TestSemesterService_Delete_Success(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "测试学期",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}

	err := svc.Delete(context.Background(), "sem-001", "admin-001")
	if err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
}

func TestSemesterService_Delete_NotFound(t *testing.T) {
	svc, _ := setupTestSemesterService()

	err := svc.Delete(context.Background(), "nonexistent", "admin-001")
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestSemesterService_Update_Success(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "旧名称",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}

	newName := "新名称"
	req := &dto.UpdateSemesterRequest{Name: &newName}

	result, err := svc.Update(context.Background(), "sem-001", req, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "新名称" {
		t.Errorf("期望Name=新名称，实际=%s", result.Name)
	}
}

func TestSemesterService_Update_OverlapWithOther(t *testing.T) {
	svc, semesterRepo := setupTestSemesterService()
	semesterRepo.semesters["sem-001"] = &model.Semester{
		SemesterID: "sem-001",
		Name:       "春季学期",
		StartDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	semesterRepo.semesters["sem-002"] = &model.Semester{
		SemesterID: "sem-002",
		Name:       "秋季学期",
		StartDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	// 只改自身日期不算重叠
	end := "2026-07-20"
	if _, err := svc.Update(context.Background(), "sem-001", &dto.UpdateSemesterRequest{EndDate: &end}, "admin-001"); err != nil {
		t.Fatalf("不与其他学期重叠的更新应成功: %v", err)
	}

	end = "2026-09-05"
	_, err := svc.Update(context.Background(), "sem-001", &dto.UpdateSemesterRequest{EndDate: &end}, "admin-001")
	if !errors.Is(err, ErrSemesterDateOverlap) {
		t.Errorf("期望 ErrSemesterDateOverlap，实际: %v", err)
	}
}

func TestSemesterService_Update_NotFound(t *testing.T) {
	svc, _ := setupTestSemesterService()

	newName := "新名称"
	req := &dto.UpdateSemesterRequest{Name: &newName}

	_, err := svc.Update(context.Background(), "nonexistent", req, "admin-001")
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}
