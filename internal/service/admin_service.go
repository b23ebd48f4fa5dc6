package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/repository"
)

const defaultPageSize = 20

// AdminService 管理员查询接口
type AdminService interface {
	ListUsers(ctx context.Context, req *dto.PageRequest) ([]dto.ProfileResponse, int64, error)
	Stats(ctx context.Context) (*dto.AdminStatsResponse, error)
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

func (s *adminService) ListUsers(ctx context.Context, req *dto.PageRequest) ([]dto.ProfileResponse, int64, error) {
	page, size := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}

	profiles, total, err := s.repo.Profile.List(ctx, (page-1)*size, size)
	if err != nil {
		s.logger.Error("列出学生档案失败", zap.Error(err))
		return nil, 0, err
	}

	out := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, *toProfileResponse(&profiles[i]))
	}
	return out, total, nil
}

// Stats 注册学生数与当前学期名称；没有激活学期时 activeSession 为空
func (s *adminService) Stats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	total, err := s.repo.Profile.Count(ctx)
	if err != nil {
		s.logger.Error("统计学生数失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.AdminStatsResponse{TotalUsers: total}
	sem, err := s.repo.Semester.GetCurrent(ctx)
	switch {
	case err == nil:
		resp.ActiveSession = sem.Name
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}
	return resp, nil
}
