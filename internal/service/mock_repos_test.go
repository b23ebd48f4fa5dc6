package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
	pkgerrors "attend-ease/backend/pkg/errors"
)

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.Name
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSemesterRepo) CountOverlapping(_ context.Context, start, end time.Time, excludeID string) (int64, error) {
	var n int64
	for id, s := range m.semesters {
		if id == excludeID {
			continue
		}
		if !start.After(s.EndDate) && !s.StartDate.After(end) {
			n++
		}
	}
	return n, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.semesters, id)
	return nil
}

func (m *mockSemesterRepo) ClearActive(_ context.Context) error {
	for _, s := range m.semesters {
		s.IsActive = false
	}
	return nil
}

// ── Mock ClassSlotRepository ──

type mockClassSlotRepo struct {
	slots []model.ClassSlot
}

func newMockClassSlotRepo() *mockClassSlotRepo {
	return &mockClassSlotRepo{}
}

func (m *mockClassSlotRepo) ListAll(_ context.Context) ([]model.ClassSlot, error) {
	out := make([]model.ClassSlot, len(m.slots))
	copy(out, m.slots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockClassSlotRepo) ReplaceAll(_ context.Context, slots []model.ClassSlot) error {
	m.slots = append([]model.ClassSlot(nil), slots...)
	return nil
}

// ── Mock CalendarRepository ──

type mockCalendarRepo struct {
	holidays []model.Holiday
	exams    []model.ExamPeriod
	loads    int
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{}
}

func (m *mockCalendarRepo) ListHolidays(_ context.Context) ([]model.Holiday, error) {
	m.loads++
	return m.holidays, nil
}

func (m *mockCalendarRepo) ListExamPeriods(_ context.Context) ([]model.ExamPeriod, error) {
	return m.exams, nil
}

func (m *mockCalendarRepo) ReplaceHolidays(_ context.Context, holidays []model.Holiday) error {
	m.holidays = holidays
	return nil
}

func (m *mockCalendarRepo) ReplaceExamPeriods(_ context.Context, periods []model.ExamPeriod) error {
	m.exams = periods
	return nil
}

// ── Mock AttendanceRepository ──

// mockAttendanceRepo 与数据库实现一致：按 marked_at 后写覆盖先写
type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord // studentID/recordID
	failErr error                              // 非 nil 时所有写入返回该错误
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func attendanceKey(studentID, recordID string) string {
	return studentID + "/" + recordID
}

func (m *mockAttendanceRepo) ListByStudent(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.StudentID == studentID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) Get(_ context.Context, studentID, recordID string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[attendanceKey(studentID, recordID)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, record *model.AttendanceRecord) error {
	if m.failErr != nil {
		return m.failErr
	}
	key := attendanceKey(record.StudentID, record.RecordID)
	if cur, ok := m.records[key]; ok && cur.MarkedAt.After(record.MarkedAt) {
		return pkgerrors.ErrStaleMark
	}
	cp := *record
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, studentID, recordID string, markedAt time.Time) error {
	if m.failErr != nil {
		return m.failErr
	}
	key := attendanceKey(studentID, recordID)
	if cur, ok := m.records[key]; ok && cur.MarkedAt.After(markedAt) {
		return pkgerrors.ErrStaleMark
	}
	delete(m.records, key)
	return nil
}

// ── Mock ProfileRepository ──

type mockProfileRepo struct {
	profiles map[string]*model.StudentProfile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.StudentProfile)}
}

func (m *mockProfileRepo) Create(_ context.Context, profile *model.StudentProfile) error {
	if _, ok := m.profiles[profile.UserID]; ok {
		return fmt.Errorf("duplicate key: %s", profile.UserID)
	}
	if profile.Version == 0 {
		profile.Version = 1
	}
	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.StudentProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) Update(_ context.Context, profile *model.StudentProfile) error {
	cur, ok := m.profiles[profile.UserID]
	if !ok || cur.Version != profile.Version {
		return pkgerrors.ErrOptimisticLock
	}
	profile.Version++
	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) List(_ context.Context, offset, limit int) ([]model.StudentProfile, int64, error) {
	all := make([]model.StudentProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.StudentProfile{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockProfileRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.profiles)), nil
}

// ── Mock TimetableRevisionRepository ──

type mockRevisionRepo struct {
	revisions []model.TimetableRevision
}

func newMockRevisionRepo() *mockRevisionRepo {
	return &mockRevisionRepo{}
}

func (m *mockRevisionRepo) Create(_ context.Context, rev *model.TimetableRevision) error {
	if rev.RevisionID == "" {
		rev.RevisionID = fmt.Sprintf("rev-%d", len(m.revisions)+1)
	}
	m.revisions = append(m.revisions, *rev)
	return nil
}

func (m *mockRevisionRepo) Latest(_ context.Context) (*model.TimetableRevision, error) {
	if len(m.revisions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	rev := m.revisions[len(m.revisions)-1]
	return &rev, nil
}

// ── 聚合 ──

type mockRepos struct {
	semester   *mockSemesterRepo
	classSlot  *mockClassSlotRepo
	calendar   *mockCalendarRepo
	attendance *mockAttendanceRepo
	profile    *mockProfileRepo
	revision   *mockRevisionRepo
}

// newMockRepository 构建全部由 mock 组成的 Repository 聚合（db 为 nil，事务为空操作）
func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		semester:   newMockSemesterRepo(),
		classSlot:  newMockClassSlotRepo(),
		calendar:   newMockCalendarRepo(),
		attendance: newMockAttendanceRepo(),
		profile:    newMockProfileRepo(),
		revision:   newMockRevisionRepo(),
	}
	repo := &repository.Repository{
		Semester:   m.semester,
		ClassSlot:  m.classSlot,
		Calendar:   m.calendar,
		Attendance: m.attendance,
		Profile:    m.profile,
		Revision:   m.revision,
	}
	return repo, m
}
