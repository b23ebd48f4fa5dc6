package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"attend-ease/backend/config"
	"attend-ease/backend/internal/api/handler"
	"attend-ease/backend/internal/api/middleware"
	"attend-ease/backend/pkg/jwt"
	"attend-ease/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// db 可为 nil（测试环境），此时健康检查不探测数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health"))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	markLimit := middleware.RateLimit(rdb, cfg.Attendance.MarkRateLimit, cfg.Attendance.MarkRateWindow)
	adminOnly := middleware.RoleAuth(jwt.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 课表模块
		schedule := v1.Group("/schedule")
		{
			schedule.GET("", h.Timetable.GetSchedule)
			schedule.GET("/weekly", h.Timetable.GetWeekly)
			schedule.GET("/daily", h.Attendance.Daily)
			schedule.GET("/ics", h.Timetable.GetICS)
		}

		// 日历例外模块
		calendar := v1.Group("/calendar")
		{
			calendar.GET("/holidays", h.Calendar.ListHolidays)
			calendar.GET("/exams", h.Calendar.ListExams)
			calendar.GET("/classify", h.Calendar.Classify)
		}

		// 学生档案模块
		students := v1.Group("/students")
		{
			students.GET("/profile", h.Profile.GetProfile)
			students.POST("/profile", h.Profile.UpsertProfile)
		}

		// 考勤模块
		records := v1.Group("/attendance")
		{
			records.GET("", h.Attendance.ListMarks)
			records.POST("", markLimit, h.Attendance.Mark)
			records.POST("/toggle", markLimit, h.Attendance.Toggle)
			records.GET("/summary", h.Attendance.Summary)
			records.GET("/subjects", h.Attendance.Subjects)
			records.GET("/subjects/:code", h.Attendance.SubjectDetail)
			records.GET("/day-statuses", h.Attendance.DayStatuses)
		}

		// 学期模块
		semesters := v1.Group("/semesters")
		{
			semesters.GET("", h.Semester.List)
			semesters.GET("/current", h.Semester.Current)
			semesters.GET("/:id", h.Semester.Get)
			semesters.POST("", adminOnly, h.Semester.Create)
			semesters.PUT("/:id", adminOnly, h.Semester.Update)
			semesters.PUT("/:id/activate", adminOnly, h.Semester.Activate)
			semesters.DELETE("/:id", adminOnly, h.Semester.Delete)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/attendance", h.Export.ExportAttendance)
		}

		// 管理员模块
		admin := v1.Group("/admin")
		admin.Use(adminOnly)
		{
			admin.PUT("/schedule", h.Timetable.ReplaceSchedule)
			admin.PUT("/holidays", h.Calendar.ReplaceHolidays)
			admin.PUT("/exams", h.Calendar.ReplaceExams)
			admin.GET("/users", h.Admin.ListUsers)
			admin.GET("/stats", h.Admin.Stats)
		}
	}

	return r
}
