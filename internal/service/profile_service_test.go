package service

import (
	"context"
	"errors"
	"testing"

	"attend-ease/backend/internal/dto"
)

func TestProfileService_Upsert_Create(t *testing.T) {
	svc, m := setupTestServices(t)

	req := &dto.UpsertProfileRequest{
		CollegeID:  "C002",
		Name:       "李四",
		Year:       "1",
		Branch:     "eeb",
		RollNumber: "23EE010",
		Group:      "b",
	}
	resp, err := svc.Profile.Upsert(context.Background(), "u2", "u2@college.edu", req)
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if resp.Branch != "EEB" || resp.Group != "B" {
		t.Errorf("专业与分组应统一为大写: %+v", resp)
	}
	if resp.BranchName != "Electrical Engineering" {
		t.Errorf("期望专业名称 Electrical Engineering，实际 %s", resp.BranchName)
	}
	if resp.CurrentSemester != defaultCurrentSemester {
		t.Errorf("未填写当前学期时应使用默认值，实际 %d", resp.CurrentSemester)
	}
	if resp.AuthEmail != "u2@college.edu" {
		t.Errorf("应记录登录邮箱，实际 %s", resp.AuthEmail)
	}
	if _, ok := m.profile.profiles["u2"]; !ok {
		t.Error("档案应已保存")
	}
}

func TestProfileService_Upsert_Update(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	req := &dto.UpsertProfileRequest{
		CollegeID:       "C001",
		Name:            "张三",
		Year:            "3",
		Branch:          "CSB",
		RollNumber:      "21CS001",
		Group:           "B",
		CurrentSemester: 5,
		Version:         1,
	}
	resp, err := svc.Profile.Upsert(ctx, "u1", "", req)
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if resp.Group != "B" || resp.Version != 2 {
		t.Errorf("更新后分组与版本不符: %+v", resp)
	}

	cohort, err := svc.Profile.Cohort(ctx, "u1")
	if err != nil || cohort.Group != "B" {
		t.Errorf("分组应已更新: %+v / %v", cohort, err)
	}

	// 使用过期的版本号
	if _, err := svc.Profile.Upsert(ctx, "u1", "", req); !errors.Is(err, ErrProfileConflict) {
		t.Errorf("期望 ErrProfileConflict，实际: %v", err)
	}
}

func TestProfileService_Get_NotFound(t *testing.T) {
	svc, _ := setupTestServices(t)

	if _, err := svc.Profile.Get(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("期望 ErrProfileNotFound，实际: %v", err)
	}
}

func TestBranchName(t *testing.T) {
	tests := map[string]string{
		"CSB": "Computer Science",
		"csb": "Computer Science",
		"ALL": "General",
		"XYZ": "XYZ",
	}
	for code, want := range tests {
		if got := BranchName(code); got != want {
			t.Errorf("%s: 期望 %s，实际 %s", code, want, got)
		}
	}
}
