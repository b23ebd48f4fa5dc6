package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"attend-ease/backend/config"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/repository"
	"attend-ease/backend/internal/service"
	"attend-ease/backend/pkg/database"
	applogger "attend-ease/backend/pkg/logger"
)

// seedOperator 导入操作在日志与修订记录中使用的操作者 ID
const seedOperator = "seed"

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	dir := flag.String("dir", "", "静态数据目录（默认使用 seed.dir）")
	reset := flag.Bool("reset", false, "回滚并重建全部表后再导入（仅限开发环境）")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *dir == "" {
		*dir = cfg.Seed.Dir
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if *reset {
		err = database.ResetMigrations(sqlDB, logger)
	} else {
		err = database.RunMigrations(sqlDB, logger)
	}
	if err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 导入工具不使用 Redis；服务端缓存在 TTL 到期后自然失效
	svc := service.NewService(cfg, repository.NewRepository(db), nil, logger)

	if err := run(context.Background(), svc, *dir, logger); err != nil {
		logger.Fatal("导入失败", zap.Error(err))
	}
	logger.Info("静态数据导入完成", zap.String("dir", *dir))
}

// run 依次导入课表、节假日与考试周；缺失的文件跳过
func run(ctx context.Context, svc *service.Service, dir string, logger *zap.Logger) error {
	var doc dto.TimetableDocument
	found, err := readJSON(filepath.Join(dir, "schedule.json"), &doc)
	if err != nil {
		return err
	}
	if found {
		res, err := svc.Timetable.ReplaceDocument(ctx, &doc, seedOperator)
		if err != nil {
			return fmt.Errorf("导入课表失败: %w", err)
		}
		logger.Info("课表已导入", zap.Int("classes", res.ClassCount), zap.String("revision_id", res.RevisionID))
	}

	var holidays dto.HolidayTable
	if found, err = readJSON(filepath.Join(dir, "holidays.json"), &holidays); err != nil {
		return err
	}
	if found {
		if err := svc.Calendar.ReplaceHolidays(ctx, &holidays, seedOperator); err != nil {
			return fmt.Errorf("导入节假日失败: %w", err)
		}
		logger.Info("节假日已导入", zap.Int("count", len(holidays.Holidays)))
	}

	var exams dto.ExamTable
	if found, err = readJSON(filepath.Join(dir, "exams.json"), &exams); err != nil {
		return err
	}
	if found {
		if err := svc.Calendar.ReplaceExams(ctx, &exams, seedOperator); err != nil {
			return fmt.Errorf("导入考试周失败: %w", err)
		}
		logger.Info("考试周已导入", zap.Int("count", len(exams.Periods)))
	}

	return nil
}

// readJSON 读取并解析 JSON 文件；文件不存在时返回 found=false
func readJSON(path string, dst interface{}) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return true, nil
}
