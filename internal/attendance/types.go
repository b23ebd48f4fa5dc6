package attendance

import (
	"fmt"
	"strings"
	"time"
)

// ── 考勤核心：公共类型 ──────────────────────────────────────
//
// 本包是纯计算层：不访问数据库、不做网络请求、不持有全局状态。
// 所有派生结果都是 (marks, schedule, exceptions, cohort) 的纯函数。
// ─────────────────────────────────────────────────────────────

const (
	// BreakCode 非教学时段（午休等）保留的课程代码
	BreakCode = "BREAK"
	// Wildcard 适用于所有专业 / 所有分组的通配值
	Wildcard = "ALL"

	// DateLayout 日期格式 YYYY-MM-DD
	DateLayout = "2006-01-02"
	// ClockLayout 时间格式 HH:MM（定长，可直接按字符串比较）
	ClockLayout = "15:04"

	// EligibilityThreshold 出勤资格线（百分比）
	EligibilityThreshold = 75.0
	// CriticalThreshold 低于此值的预警为 critical
	CriticalThreshold = 50.0

	// UnknownCourseName 课表中不存在的课程代码的展示名
	UnknownCourseName = "未知课程"
)

// Status 单次课程的考勤状态，空字符串表示未标记
type Status string

const (
	StatusUnmarked  Status = ""
	StatusPresent   Status = "present"
	StatusAbsent    Status = "absent"
	StatusCancelled Status = "cancelled"
)

// Valid 是否为合法状态（含未标记）
func (s Status) Valid() bool {
	switch s {
	case StatusUnmarked, StatusPresent, StatusAbsent, StatusCancelled:
		return true
	default:
		return false
	}
}

// Marked 是否为已标记状态
func (s Status) Marked() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusCancelled
}

// Cohort 学生所属的（专业, 分组），用于筛选课表
type Cohort struct {
	Branch string
	Group  string
}

// ClassSlot 每周重复的一个上课时段
type ClassSlot struct {
	SubjectCode string
	DisplayName string
	Room        string
	Weekday     time.Weekday
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	Branch      string // 专业代码或 ALL
	Group       string // A | B | ALL
	Semester    int
}

// IsBreak 是否为非教学时段
func (c ClassSlot) IsBreak() bool {
	return c.SubjectCode == BreakCode
}

// Key 同一天内的时段身份 (subjectCode, startTime)
func (c ClassSlot) Key() SlotKey {
	return SlotKey{SubjectCode: c.SubjectCode, TimeStart: c.StartTime}
}

// appliesTo 专业与分组是否匹配（含通配），区分大小写
func (c ClassSlot) appliesTo(cohort Cohort) bool {
	branchOK := c.Branch == Wildcard || c.Branch == cohort.Branch
	groupOK := c.Group == Wildcard || c.Group == cohort.Group
	return branchOK && groupOK
}

// SlotKey 课程 + 可选开始时间的复合身份
type SlotKey struct {
	SubjectCode string
	TimeStart   string // 为空表示旧数据（每天仅一节）
}

// MarkKey 考勤记录身份 (subjectCode, classDate, timeStart?)
type MarkKey struct {
	SubjectCode string
	ClassDate   string // YYYY-MM-DD
	TimeStart   string // HH:MM，可为空
}

// Slot 去掉日期后的时段身份
func (k MarkKey) Slot() SlotKey {
	return SlotKey{SubjectCode: k.SubjectCode, TimeStart: k.TimeStart}
}

// RecordID 存储层文档 ID，与旧数据格式 subject_date[_HHMM] 保持一致
func (k MarkKey) RecordID() string {
	if k.TimeStart == "" {
		return fmt.Sprintf("%s_%s", k.SubjectCode, k.ClassDate)
	}
	return fmt.Sprintf("%s_%s_%s", k.SubjectCode, k.ClassDate, strings.ReplaceAll(k.TimeStart, ":", ""))
}

// Mark 学生对某门课某一次上课的考勤决定
type Mark struct {
	Key      MarkKey
	Status   Status
	MarkedAt time.Time
}

// SubjectStat 单门课程的统计（派生，不存储）
type SubjectStat struct {
	Present   int
	Absent    int
	Cancelled int
}

// Severity 预警级别
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert 低于资格线的课程预警
type Alert struct {
	SubjectCode string
	Percentage  float64
	Severity    Severity
}

// DayStatus 某日的聚合状态，用于日历着色
type DayStatus string

const (
	DayAllPresent   DayStatus = "all-present"
	DayAllAbsent    DayStatus = "all-absent"
	DayAllCancelled DayStatus = "all-cancelled"
	DayMixed        DayStatus = "mixed"
)

// ── 日期辅助 ──

// ParseDate 解析 YYYY-MM-DD 为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock 校验 HH:MM
func ParseClock(s string) (time.Time, error) {
	return time.Parse(ClockLayout, s)
}

// civil 只保留年月日，消除时区与时分秒的影响
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseWeekday 解析英文星期名（Monday / mon，不区分大小写）
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("无效的星期: %q", s)
}
