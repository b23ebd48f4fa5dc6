package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attend-ease/backend/internal/attendance"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
	pkgerrors "attend-ease/backend/pkg/errors"
)

// ── 学生档案模块业务错误 ──

var (
	ErrProfileNotFound = errors.New("学生档案不存在，请先完善个人信息")
	ErrProfileConflict = errors.New("学生档案已被修改，请刷新后重试")
)

// defaultCurrentSemester 未填写当前学期时的默认值
const defaultCurrentSemester = 2

// branchNames 专业代码 → 专业名称
var branchNames = map[string]string{
	"CSB": "Computer Science",
	"EEB": "Electrical Engineering",
	"MEB": "Mechanical Engineering",
	"CEB": "Civil Engineering",
	"ITB": "Information Technology",
	"ALL": "General",
}

// BranchName 专业名称，未知代码原样返回
func BranchName(code string) string {
	if name, ok := branchNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// ProfileService 学生档案业务接口
type ProfileService interface {
	Get(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	// Upsert 不存在时创建，存在时按 version 乐观锁更新
	Upsert(ctx context.Context, userID, email string, req *dto.UpsertProfileRequest) (*dto.ProfileResponse, error)
	// Cohort 学生所属的专业与分组
	Cohort(ctx context.Context, userID string) (attendance.Cohort, error)
}

type profileService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

func (s *profileService) Get(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	p, err := s.repo.Profile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toProfileResponse(p), nil
}

func (s *profileService) Upsert(ctx context.Context, userID, email string, req *dto.UpsertProfileRequest) (*dto.ProfileResponse, error) {
	semester := req.CurrentSemester
	if semester == 0 {
		semester = defaultCurrentSemester
	}

	existing, err := s.repo.Profile.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// ── 创建 ──
	if existing == nil {
		p := &model.StudentProfile{
			UserID:          userID,
			CollegeID:       req.CollegeID,
			Name:            req.Name,
			AuthEmail:       email,
			Year:            req.Year,
			Branch:          strings.ToUpper(req.Branch),
			RollNumber:      req.RollNumber,
			Group:           strings.ToUpper(req.Group),
			CurrentSemester: semester,
		}
		p.CreatedBy = &userID
		p.UpdatedBy = &userID
		if err := s.repo.Profile.Create(ctx, p); err != nil {
			s.logger.Error("创建学生档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("学生档案已创建", zap.String("user_id", userID), zap.String("branch", p.Branch))
		return toProfileResponse(p), nil
	}

	// ── 更新 ──
	if req.Version != 0 && req.Version != existing.Version {
		return nil, ErrProfileConflict
	}
	existing.CollegeID = req.CollegeID
	existing.Name = req.Name
	if email != "" {
		existing.AuthEmail = email
	}
	existing.Year = req.Year
	existing.Branch = strings.ToUpper(req.Branch)
	existing.RollNumber = req.RollNumber
	existing.Group = strings.ToUpper(req.Group)
	existing.CurrentSemester = semester
	existing.UpdatedBy = &userID

	if err := s.repo.Profile.Update(ctx, existing); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrProfileConflict
		}
		s.logger.Error("更新学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toProfileResponse(existing), nil
}

func (s *profileService) Cohort(ctx context.Context, userID string) (attendance.Cohort, error) {
	return loadCohort(ctx, s.repo, s.logger, userID)
}

// loadCohort 查询学生档案并返回其专业与分组
func loadCohort(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID string) (attendance.Cohort, error) {
	p, err := repo.Profile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return attendance.Cohort{}, ErrProfileNotFound
		}
		logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return attendance.Cohort{}, err
	}
	return attendance.Cohort{Branch: p.Branch, Group: p.Group}, nil
}

func toProfileResponse(p *model.StudentProfile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:              p.UserID,
		CollegeID:       p.CollegeID,
		Name:            p.Name,
		AuthEmail:       p.AuthEmail,
		Year:            p.Year,
		Branch:          p.Branch,
		BranchName:      BranchName(p.Branch),
		RollNumber:      p.RollNumber,
		Group:           p.Group,
		CurrentSemester: p.CurrentSemester,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
