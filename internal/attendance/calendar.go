package attendance

import "time"

// Holiday 单日节假日
type Holiday struct {
	Date time.Time
	Name string
}

// ExamPeriod 考试周（闭区间）
type ExamPeriod struct {
	Start time.Time
	End   time.Time
	Label string
}

// contains 日期是否落在 [Start, End] 内
func (p ExamPeriod) contains(day time.Time) bool {
	return !day.Before(civil(p.Start)) && !day.After(civil(p.End))
}

// ExceptionKind 日期例外类型，用于只能展示一个标签的场景
type ExceptionKind string

const (
	ExceptionNone    ExceptionKind = ""
	ExceptionHoliday ExceptionKind = "holiday"
	ExceptionExam    ExceptionKind = "exam"
	ExceptionWeekend ExceptionKind = "weekend"
)

// Classification 某个日期的例外分类结果
type Classification struct {
	IsHoliday   bool
	HolidayName string
	IsExam      bool
	ExamLabel   string
	IsWeekend   bool
}

// Excluded 是否命中任一例外（此类日期没有应上课时段）
func (c Classification) Excluded() bool {
	return c.IsHoliday || c.IsExam || c.IsWeekend
}

// Label 单标签展示：节假日 > 考试周 > 周末
func (c Classification) Label() (ExceptionKind, string) {
	switch {
	case c.IsHoliday:
		return ExceptionHoliday, c.HolidayName
	case c.IsExam:
		return ExceptionExam, c.ExamLabel
	case c.IsWeekend:
		return ExceptionWeekend, ""
	default:
		return ExceptionNone, ""
	}
}

// DefaultWeekend 默认休息日
var DefaultWeekend = []time.Weekday{time.Saturday, time.Sunday}

// CalendarIndex 日历例外索引
//
// 例外条目数量很小（<1000），查询按线性扫描实现，无需额外索引。
type CalendarIndex struct {
	holidays []Holiday
	exams    []ExamPeriod
	weekend  [7]bool
}

// NewCalendarIndex 创建日历例外索引，weekend 为空时使用周六、周日
func NewCalendarIndex(holidays []Holiday, exams []ExamPeriod, weekend ...time.Weekday) *CalendarIndex {
	if len(weekend) == 0 {
		weekend = DefaultWeekend
	}
	idx := &CalendarIndex{
		holidays: append([]Holiday(nil), holidays...),
		exams:    append([]ExamPeriod(nil), exams...),
	}
	for _, d := range weekend {
		idx.weekend[d] = true
	}
	return idx
}

// Classify 判断日期是否为节假日 / 考试周 / 周末
func (idx *CalendarIndex) Classify(date time.Time) Classification {
	day := civil(date)
	var c Classification

	for _, h := range idx.holidays {
		if civil(h.Date).Equal(day) {
			c.IsHoliday = true
			c.HolidayName = h.Name
			break
		}
	}
	for _, p := range idx.exams {
		if p.contains(day) {
			c.IsExam = true
			c.ExamLabel = p.Label
			break
		}
	}
	c.IsWeekend = idx.weekend[day.Weekday()]

	return c
}

// Holidays 节假日列表副本
func (idx *CalendarIndex) Holidays() []Holiday {
	return append([]Holiday(nil), idx.holidays...)
}

// Exams 考试周列表副本
func (idx *CalendarIndex) Exams() []ExamPeriod {
	return append([]ExamPeriod(nil), idx.exams...)
}
