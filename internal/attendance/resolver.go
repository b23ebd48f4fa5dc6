package attendance

import (
	"sort"
	"time"
)

// SemesterWindow 当前学期的起止日期（闭区间）
type SemesterWindow struct {
	Start time.Time
	End   time.Time
}

// IsWithinSemester 日期是否在学期内
// window 为 nil（未配置学期）时一律返回 true，不能因为缺配置而隐藏课程。
func IsWithinSemester(date time.Time, window *SemesterWindow) bool {
	if window == nil {
		return true
	}
	day := civil(date)
	return !day.Before(civil(window.Start)) && !day.After(civil(window.End))
}

// ScheduleResolver 根据每周课表与学生分组解析某天应上的课
type ScheduleResolver struct {
	slots []ClassSlot
}

// NewScheduleResolver 创建课表解析器，入参会被复制，之后不可变
func NewScheduleResolver(slots []ClassSlot) *ScheduleResolver {
	return &ScheduleResolver{slots: append([]ClassSlot(nil), slots...)}
}

// Slots 全部时段副本
func (r *ScheduleResolver) Slots() []ClassSlot {
	return append([]ClassSlot(nil), r.slots...)
}

// ExpectedSlots 某个星期几、某个分组应上的教学时段，按开始时间升序
func (r *ScheduleResolver) ExpectedSlots(weekday time.Weekday, cohort Cohort) []ClassSlot {
	out := make([]ClassSlot, 0)
	for _, s := range r.slots {
		if s.Weekday != weekday || s.IsBreak() || !s.appliesTo(cohort) {
			continue
		}
		out = append(out, s)
	}
	sortSlots(out)
	return out
}

// ExpectedOn 某日期应上的教学时段（仅按星期几解析，例外由调用方判断）
func (r *ScheduleResolver) ExpectedOn(date time.Time, cohort Cohort) []ClassSlot {
	return r.ExpectedSlots(civil(date).Weekday(), cohort)
}

// WeeklyGrid 周一到周日的完整课表，保留 BREAK 行以便展示午休
func (r *ScheduleResolver) WeeklyGrid(cohort Cohort) map[time.Weekday][]ClassSlot {
	grid := make(map[time.Weekday][]ClassSlot, 7)
	for _, s := range r.slots {
		if !s.appliesTo(cohort) {
			continue
		}
		grid[s.Weekday] = append(grid[s.Weekday], s)
	}
	for d := range grid {
		sortSlots(grid[d])
	}
	return grid
}

// SlotsForSubject 某门课在一周内的全部时段
func (r *ScheduleResolver) SlotsForSubject(code string, cohort Cohort) []ClassSlot {
	out := make([]ClassSlot, 0)
	for _, s := range r.slots {
		if s.SubjectCode == code && !s.IsBreak() && s.appliesTo(cohort) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return weekdayOrder(out[i].Weekday) < weekdayOrder(out[j].Weekday)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// SubjectNames 课程代码 → 展示名（取第一次出现的名称）
func (r *ScheduleResolver) SubjectNames() map[string]string {
	names := make(map[string]string)
	for _, s := range r.slots {
		if s.IsBreak() {
			continue
		}
		if _, ok := names[s.SubjectCode]; !ok {
			names[s.SubjectCode] = s.DisplayName
		}
	}
	return names
}

// SubjectCodes 该分组的全部教学课程代码（去重、排序）
func (r *ScheduleResolver) SubjectCodes(cohort Cohort) []string {
	seen := make(map[string]bool)
	codes := make([]string, 0)
	for _, s := range r.slots {
		if s.IsBreak() || !s.appliesTo(cohort) || seen[s.SubjectCode] {
			continue
		}
		seen[s.SubjectCode] = true
		codes = append(codes, s.SubjectCode)
	}
	sort.Strings(codes)
	return codes
}

// sortSlots HH:MM 定长，按字符串比较即可；同一时间再按课程代码保证结果稳定
func sortSlots(slots []ClassSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].SubjectCode < slots[j].SubjectCode
	})
}

// weekdayOrder 周一为一周第一天
func weekdayOrder(d time.Weekday) int {
	return (int(d) + 6) % 7
}
