package attendance

import (
	"sort"
	"time"
)

// ── 课程统计 ──

// SubjectStats 按课程代码汇总出勤 / 缺勤 / 停课次数，BREAK 与未标记记录不计入
func SubjectStats(marks []Mark) map[string]SubjectStat {
	stats := make(map[string]SubjectStat)
	for _, m := range marks {
		if m.Key.SubjectCode == BreakCode {
			continue
		}
		st := stats[m.Key.SubjectCode]
		switch m.Status {
		case StatusPresent:
			st.Present++
		case StatusAbsent:
			st.Absent++
		case StatusCancelled:
			st.Cancelled++
		default:
			continue
		}
		stats[m.Key.SubjectCode] = st
	}
	return stats
}

// Percentage 出勤率 = present / (present + absent) * 100
// 分母为 0 时视为 100（尚无数据，不算预警）。停课不进入分母。
func Percentage(s SubjectStat) float64 {
	total := s.Present + s.Absent
	if total == 0 {
		return 100
	}
	return float64(s.Present) / float64(total) * 100
}

// Alerts 出勤率低于资格线的课程，最差的排在最前
func Alerts(stats map[string]SubjectStat) []Alert {
	alerts := make([]Alert, 0)
	for code, st := range stats {
		pct := Percentage(st)
		if pct >= EligibilityThreshold {
			continue
		}
		sev := SeverityWarning
		if pct < CriticalThreshold {
			sev = SeverityCritical
		}
		alerts = append(alerts, Alert{SubjectCode: code, Percentage: pct, Severity: sev})
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Percentage != alerts[j].Percentage {
			return alerts[i].Percentage < alerts[j].Percentage
		}
		return alerts[i].SubjectCode < alerts[j].SubjectCode
	})
	return alerts
}

// Summary 全部课程的汇总
type Summary struct {
	Present    int
	Absent     int
	Cancelled  int
	Percentage float64
}

// Overall 汇总所有课程（仪表盘总览）
func Overall(marks []Mark) Summary {
	var total SubjectStat
	for _, st := range SubjectStats(marks) {
		total.Present += st.Present
		total.Absent += st.Absent
		total.Cancelled += st.Cancelled
	}
	return Summary{
		Present:    total.Present,
		Absent:     total.Absent,
		Cancelled:  total.Cancelled,
		Percentage: Percentage(total),
	}
}

// ── 单日状态 ──

// DeriveDayStatus 由当日考勤记录与应上课时段推导当日状态
//
// 第二个返回值为 false 表示该日没有状态（不着色）。本函数不检查节假日等例外，
// 由 Reconciler.DayStatus 统一处理。
func DeriveDayStatus(marksOnDate []Mark, expected []ClassSlot) (DayStatus, bool) {
	if len(expected) == 0 {
		return "", false
	}

	marked := 0
	statuses := make(map[Status]struct{}, 3)
	for _, m := range marksOnDate {
		if m.Key.SubjectCode == BreakCode || !m.Status.Marked() {
			continue
		}
		marked++
		statuses[m.Status] = struct{}{}
	}
	if marked == 0 {
		return "", false
	}

	// 记录数只是完整性门槛；多于应上课数（例如新增时段）时仍以状态是否一致为准
	if marked >= len(expected) && len(statuses) == 1 {
		for s := range statuses {
			return DayStatus("all-" + string(s)), true
		}
	}
	return DayMixed, true
}

// ── Reconciler ──

// Reconciler 将考勤记录与课表、日历例外合并
//
// 持有的都是不可变快照，所有方法都是纯函数，可在多个请求间共享。
type Reconciler struct {
	calendar *CalendarIndex
	resolver *ScheduleResolver
	window   *SemesterWindow
}

// NewReconciler 创建 Reconciler，window 为 nil 表示未配置学期
func NewReconciler(calendar *CalendarIndex, resolver *ScheduleResolver, window *SemesterWindow) *Reconciler {
	if calendar == nil {
		calendar = NewCalendarIndex(nil, nil)
	}
	if resolver == nil {
		resolver = NewScheduleResolver(nil)
	}
	return &Reconciler{calendar: calendar, resolver: resolver, window: window}
}

// Calendar 日历例外索引
func (r *Reconciler) Calendar() *CalendarIndex { return r.calendar }

// Resolver 课表解析器
func (r *Reconciler) Resolver() *ScheduleResolver { return r.resolver }

// Window 学期窗口，可能为 nil
func (r *Reconciler) Window() *SemesterWindow { return r.window }

// IsScheduleDay 日期是否可能有课：在学期内且不是节假日 / 考试周 / 周末
func (r *Reconciler) IsScheduleDay(date time.Time) bool {
	return IsWithinSemester(date, r.window) && !r.calendar.Classify(date).Excluded()
}

// DayStatus 某日状态；节假日、考试周、周末、学期外一律没有状态
func (r *Reconciler) DayStatus(date time.Time, marksOnDate []Mark, expected []ClassSlot) (DayStatus, bool) {
	if !r.IsScheduleDay(date) {
		return "", false
	}
	return DeriveDayStatus(marksOnDate, expected)
}

// DayStatuses 考勤记录中出现过的每个日期 → 当日状态
func (r *Reconciler) DayStatuses(marks []Mark, cohort Cohort) map[string]DayStatus {
	byDate := make(map[string][]Mark)
	for _, m := range marks {
		if m.Key.SubjectCode == BreakCode {
			continue
		}
		byDate[m.Key.ClassDate] = append(byDate[m.Key.ClassDate], m)
	}

	out := make(map[string]DayStatus, len(byDate))
	for ds, dayMarks := range byDate {
		date, err := ParseDate(ds)
		if err != nil {
			// 上游保证日期格式正确，此处仅跳过
			continue
		}
		expected := r.resolver.ExpectedOn(date, cohort)
		if st, ok := r.DayStatus(date, dayMarks, expected); ok {
			out[ds] = st
		}
	}
	return out
}

// CourseRow 课程统计表中的一行
type CourseRow struct {
	SubjectCode string
	Name        string
	Known       bool
	Stat        SubjectStat
	Percentage  float64
}

// CourseTable 每门课一行：课表中的课程（无记录时 100%）+ 记录中出现但课表没有的未知课程
func (r *Reconciler) CourseTable(marks []Mark, cohort Cohort) []CourseRow {
	stats := SubjectStats(marks)
	names := r.resolver.SubjectNames()

	rows := make([]CourseRow, 0, len(stats))
	seen := make(map[string]bool)
	for _, code := range r.resolver.SubjectCodes(cohort) {
		seen[code] = true
		st := stats[code]
		rows = append(rows, CourseRow{
			SubjectCode: code,
			Name:        names[code],
			Known:       true,
			Stat:        st,
			Percentage:  Percentage(st),
		})
	}

	extra := make([]string, 0)
	for code := range stats {
		if !seen[code] {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)
	for _, code := range extra {
		st := stats[code]
		name, known := names[code]
		if !known {
			name = UnknownCourseName
		}
		rows = append(rows, CourseRow{
			SubjectCode: code,
			Name:        name,
			Known:       known,
			Stat:        st,
			Percentage:  Percentage(st),
		})
	}
	return rows
}

// SubjectHistory 某门课的全部已标记记录，按日期、时间倒序
func SubjectHistory(marks []Mark, code string) []Mark {
	out := make([]Mark, 0)
	for _, m := range marks {
		if m.Key.SubjectCode == code && m.Status.Marked() {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ClassDate != out[j].Key.ClassDate {
			return out[i].Key.ClassDate > out[j].Key.ClassDate
		}
		return out[i].Key.TimeStart > out[j].Key.TimeStart
	})
	return out
}
