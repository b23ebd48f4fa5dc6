package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attend-ease/backend/internal/attendance"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound          = errors.New("学期不存在")
	ErrSemesterDateInvalid       = errors.New("学期结束日期必须晚于开始日期")
	ErrSemesterDateOverlap       = errors.New("学期日期与已有学期重叠")
	ErrSemesterTimetableMismatch = errors.New("学期起止日期与当前课表的 semesterConfig 不一致")
)

// SemesterService 学期业务接口
//
// 激活学期决定考勤计算的学期窗口；没有激活学期时退回课表文档的 semesterConfig。
type SemesterService interface {
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	Get(ctx context.Context, id string) (*dto.SemesterResponse, error)
	// Window 当前生效的学期窗口及其来源，从不返回 ErrSemesterNotFound
	Window(ctx context.Context) (*dto.SemesterWindowResponse, error)
	Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	// Activate 设为唯一激活学期；课表配置了 semesterConfig 时起止日期必须一致
	Activate(ctx context.Context, id string, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
}

type semesterService struct {
	repo   *repository.Repository
	cache  *timetableCache
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
// 学期窗口变化会影响课表视图，激活学期变更后清除课表缓存。
func NewSemesterService(repo *repository.Repository, cache *timetableCache, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── 查询 ──────────────────────

func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	out := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		out = append(out, *semesterResponse(&semesters[i]))
	}
	return out, nil
}

func (s *semesterService) Get(ctx context.Context, id string) (*dto.SemesterResponse, error) {
	sem, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return semesterResponse(sem), nil
}

func (s *semesterService) Window(ctx context.Context) (*dto.SemesterWindowResponse, error) {
	w, sem, source, err := resolveSemesterWindow(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}

	resp := &dto.SemesterWindowResponse{Source: source}
	if w != nil {
		resp.Start = attendance.FormatDate(w.Start)
		resp.End = attendance.FormatDate(w.End)
	}
	if sem != nil {
		resp.Semester = semesterResponse(sem)
	}
	return resp, nil
}

// ────────────────────── 写入 ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	start, end, err := parseSemesterRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, start, end, ""); err != nil {
		return nil, err
	}

	sem := &model.Semester{Name: req.Name, StartDate: start, EndDate: end}
	sem.CreatedBy = &callerID
	sem.UpdatedBy = &callerID

	if err := s.repo.Semester.Create(ctx, sem); err != nil {
		s.logger.Error("创建学期失败", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	return semesterResponse(sem), nil
}

func (s *semesterService) Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	sem, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	start := attendance.FormatDate(sem.StartDate)
	end := attendance.FormatDate(sem.EndDate)
	datesChanged := req.StartDate != nil || req.EndDate != nil
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}

	if datesChanged {
		startDate, endDate, err := parseSemesterRange(start, end)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNoOverlap(ctx, startDate, endDate, sem.SemesterID); err != nil {
			return nil, err
		}
		sem.StartDate, sem.EndDate = startDate, endDate
	}
	if req.Name != nil {
		sem.Name = *req.Name
	}
	sem.UpdatedBy = &callerID

	if err := s.repo.Semester.Update(ctx, sem); err != nil {
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if sem.IsActive && datesChanged {
		s.cache.invalidate(ctx)
	}
	return semesterResponse(sem), nil
}

func (s *semesterService) Activate(ctx context.Context, id string, callerID string) error {
	sem, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	configured, err := timetableWindow(ctx, s.repo, s.logger)
	if err != nil {
		return err
	}
	if configured != nil &&
		(attendance.FormatDate(configured.Start) != attendance.FormatDate(sem.StartDate) ||
			attendance.FormatDate(configured.End) != attendance.FormatDate(sem.EndDate)) {
		s.logger.Warn("激活学期与课表 semesterConfig 不一致",
			zap.String("id", id),
			zap.String("config_start", attendance.FormatDate(configured.Start)),
			zap.String("config_end", attendance.FormatDate(configured.End)),
		)
		return ErrSemesterTimetableMismatch
	}

	// ClearActive + Update 必须在同一事务内
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	if err := txRepo.Semester.ClearActive(ctx); err != nil {
		rollback()
		s.logger.Error("清除激活学期失败", zap.Error(err))
		return err
	}

	sem.IsActive = true
	sem.UpdatedBy = &callerID
	if err := txRepo.Semester.Update(ctx, sem); err != nil {
		rollback()
		s.logger.Error("激活学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.cache.invalidate(ctx)
	s.logger.Info("学期已激活", zap.String("id", id), zap.String("name", sem.Name))
	return nil
}

func (s *semesterService) Delete(ctx context.Context, id string, callerID string) error {
	sem, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Semester.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	// 删除激活学期后窗口退回 semesterConfig
	if sem.IsActive {
		s.cache.invalidate(ctx)
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *semesterService) find(ctx context.Context, id string) (*model.Semester, error) {
	sem, err := s.repo.Semester.GetByID(ctx, id)
	if err == nil {
		return sem, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSemesterNotFound
	}
	s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
	return nil, err
}

// ensureNoOverlap 学期日期闭区间不得与其他学期重叠
func (s *semesterService) ensureNoOverlap(ctx context.Context, start, end time.Time, excludeID string) error {
	n, err := s.repo.Semester.CountOverlapping(ctx, start, end, excludeID)
	if err != nil {
		s.logger.Error("检查学期重叠失败", zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrSemesterDateOverlap
	}
	return nil
}

// parseSemesterRange 解析 YYYY-MM-DD 起止日期，结束日期必须晚于开始日期
func parseSemesterRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := attendance.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrSemesterDateInvalid
	}
	end, err := attendance.ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrSemesterDateInvalid
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrSemesterDateInvalid
	}
	return start, end, nil
}

func semesterResponse(sem *model.Semester) *dto.SemesterResponse {
	return &dto.SemesterResponse{
		ID:        sem.SemesterID,
		Name:      sem.Name,
		StartDate: attendance.FormatDate(sem.StartDate),
		EndDate:   attendance.FormatDate(sem.EndDate),
		IsActive:  sem.IsActive,
		CreatedAt: sem.CreatedAt.Format(time.RFC3339),
		UpdatedAt: sem.UpdatedAt.Format(time.RFC3339),
	}
}
