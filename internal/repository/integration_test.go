//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
	"attend-ease/backend/pkg/database"
	pkgerrors "attend-ease/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=attend_ease password=attend_ease_password dbname=attend_ease_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移文件建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}

	rev := &model.TimetableRevision{Document: datatypes.JSON(`{"classes":[]}`), ClassCount: 0}
	if err := repo.WithTx(tx).Revision.Create(ctx, rev); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建修订失败: %v", err)
	}

	tx.Rollback()

	var count int64
	testDB.Model(&model.TimetableRevision{}).Where("revision_id = ?", rev.RevisionID).Count(&count)
	if count != 0 {
		testDB.Where("revision_id = ?", rev.RevisionID).Delete(&model.TimetableRevision{})
		t.Fatal("期望回滚后查不到修订记录，但实际查到了")
	}
}

func TestClassSlot_ReplaceAllWithRevision(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	slots := []model.ClassSlot{
		{Position: 0, Branch: "ALL", ClassName: "数据结构", SubjectCode: "CS101", DayOfWeek: 1, TimeStart: "09:00", TimeEnd: "10:00", Group: "ALL"},
		{Position: 1, Branch: "ALL", ClassName: "午休", SubjectCode: "BREAK", DayOfWeek: 1, TimeStart: "12:00", TimeEnd: "13:00", Group: "ALL"},
	}
	if err := txRepo.ClassSlot.ReplaceAll(ctx, slots); err != nil {
		tx.Rollback()
		t.Fatalf("ReplaceAll 失败: %v", err)
	}
	rev := &model.TimetableRevision{Document: datatypes.JSON(`{"classes":[{},{}]}`), ClassCount: len(slots)}
	if err := txRepo.Revision.Create(ctx, rev); err != nil {
		tx.Rollback()
		t.Fatalf("创建修订失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	got, err := repo.ClassSlot.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll 失败: %v", err)
	}
	if len(got) != 2 || got[0].SubjectCode != "CS101" || got[1].SubjectCode != "BREAK" {
		t.Errorf("课表应按 position 顺序整体替换: %+v", got)
	}

	latest, err := repo.Revision.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest 失败: %v", err)
	}
	if latest.RevisionID != rev.RevisionID {
		t.Errorf("最新修订期望 %s，实际 %s", rev.RevisionID, latest.RevisionID)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Attendance last-write-wins
// ═══════════════════════════════════════════════════════════

func TestAttendance_LastWriteWins(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	student := uniqueID("stu")
	defer testDB.Where("student_id = ?", student).Delete(&model.AttendanceRecord{})

	base := time.Date(2024, 3, 11, 9, 5, 0, 0, time.UTC)
	rec := &model.AttendanceRecord{
		StudentID:   student,
		RecordID:    "CS101_2024-03-11_0900",
		SubjectCode: "CS101",
		ClassDate:   date(2024, 3, 11),
		TimeStart:   "09:00",
		Status:      "present",
		MarkedAt:    base,
	}
	if err := repo.Attendance.Upsert(ctx, rec); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}

	newer := *rec
	newer.Status = "absent"
	newer.MarkedAt = base.Add(time.Minute)
	if err := repo.Attendance.Upsert(ctx, &newer); err != nil {
		t.Fatalf("较新写入失败: %v", err)
	}

	older := *rec
	older.Status = "cancelled"
	older.MarkedAt = base.Add(-time.Minute)
	if err := repo.Attendance.Upsert(ctx, &older); !errors.Is(err, pkgerrors.ErrStaleMark) {
		t.Fatalf("较旧写入期望 ErrStaleMark，实际 %v", err)
	}

	got, err := repo.Attendance.Get(ctx, student, rec.RecordID)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if got.Status != "absent" {
		t.Errorf("期望保留较新的 absent，实际 %s", got.Status)
	}

	list, _ := repo.Attendance.ListByStudent(ctx, student)
	if len(list) != 1 {
		t.Errorf("同一身份只应有一条记录，实际 %d", len(list))
	}

	// 较旧的清除被拒绝，较新的清除生效
	if err := repo.Attendance.Delete(ctx, student, rec.RecordID, base); !errors.Is(err, pkgerrors.ErrStaleMark) {
		t.Errorf("较旧清除期望 ErrStaleMark，实际 %v", err)
	}
	if err := repo.Attendance.Delete(ctx, student, rec.RecordID, base.Add(time.Hour)); err != nil {
		t.Fatalf("较新清除失败: %v", err)
	}
	if err := repo.Attendance.Delete(ctx, student, rec.RecordID, base.Add(2*time.Hour)); err != nil {
		t.Errorf("重复清除应幂等，实际 %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Profile optimistic lock
// ═══════════════════════════════════════════════════════════

func TestProfile_OptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	uid := uniqueID("uid")
	defer testDB.Where("user_id = ?", uid).Delete(&model.StudentProfile{})

	p := &model.StudentProfile{
		UserID:          uid,
		CollegeID:       uniqueID("C"),
		Name:            "张三",
		Year:            "2",
		Branch:          "CSB",
		RollNumber:      "21CS001",
		Group:           "A",
		CurrentSemester: 2,
	}
	if err := repo.Profile.Create(ctx, p); err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}

	first, _ := repo.Profile.GetByUserID(ctx, uid)
	second, _ := repo.Profile.GetByUserID(ctx, uid)

	first.Group = "B"
	if err := repo.Profile.Update(ctx, first); err != nil {
		t.Fatalf("第一次更新失败: %v", err)
	}

	second.Name = "李四"
	if err := repo.Profile.Update(ctx, second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("期望乐观锁冲突，实际 %v", err)
	}

	got, _ := repo.Profile.GetByUserID(ctx, uid)
	if got.Group != "B" || got.Version != first.Version {
		t.Errorf("期望 group=B version=%d，实际 %+v", first.Version, got)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Calendar replace
// ═══════════════════════════════════════════════════════════

func TestCalendar_ReplaceHolidays(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Calendar.ReplaceHolidays(ctx, []model.Holiday{
		{Date: date(2024, 3, 4), Name: "校庆日"},
		{Date: date(2024, 1, 26), Name: "国庆"},
	}); err != nil {
		t.Fatalf("ReplaceHolidays 失败: %v", err)
	}
	if err := repo.Calendar.ReplaceHolidays(ctx, []model.Holiday{
		{Date: date(2024, 5, 1), Name: "劳动节"},
	}); err != nil {
		t.Fatalf("第二次 ReplaceHolidays 失败: %v", err)
	}

	got, err := repo.Calendar.ListHolidays(ctx)
	if err != nil {
		t.Fatalf("ListHolidays 失败: %v", err)
	}
	if len(got) != 1 || got[0].Name != "劳动节" {
		t.Errorf("整体替换后应只剩新表: %+v", got)
	}

	_ = repo.Calendar.ReplaceHolidays(ctx, nil)
}
