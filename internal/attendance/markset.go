package attendance

import (
	"sort"
	"time"
)

// NextStatus 点击某个状态按钮后的新状态
// 再次点击当前已激活的状态会清除标记（回到未标记），否则切换为点击的状态。
func NextStatus(current, clicked Status) Status {
	if clicked == current {
		return StatusUnmarked
	}
	return clicked
}

// MarkSet 单个学生的考勤记录集合
//
// 以 MarkKey 为身份做替换 / 插入 / 删除；同一身份按 MarkedAt 后写覆盖先写，
// 同一时刻按状态优先级裁决，因此结果与记录到达顺序无关。
// 取消标记会留下删除时间，更旧的写入不能让记录复活。
// 乐观更新后的记录会被标记为未同步，直到写入成功。非并发安全。
type MarkSet struct {
	marks    map[MarkKey]Mark
	removed  map[MarkKey]time.Time
	unsynced map[MarkKey]bool
}

// NewMarkSet 由已有记录构建集合，重复身份保留 MarkedAt 最新的一条
func NewMarkSet(marks []Mark) *MarkSet {
	ms := &MarkSet{
		marks:    make(map[MarkKey]Mark, len(marks)),
		removed:  make(map[MarkKey]time.Time),
		unsynced: make(map[MarkKey]bool),
	}
	for _, m := range marks {
		ms.Apply(m)
	}
	return ms
}

// Apply 写入一条记录；未标记状态表示删除
// 没有胜过当前记录（含删除）的写入会被忽略，返回 false。
func (ms *MarkSet) Apply(m Mark) bool {
	if cur, ok := ms.current(m.Key); ok && !supersedes(m, cur) {
		return false
	}
	ms.store(m)
	return true
}

// Toggle 乐观更新：按点击规则计算新状态并立即写入本地，返回写入后的记录
func (ms *MarkSet) Toggle(key MarkKey, clicked Status, at time.Time) Mark {
	cur := ms.marks[key].Status
	next := Mark{Key: key, Status: NextStatus(cur, clicked), MarkedAt: at}
	ms.Set(next)
	return next
}

// Set 乐观地写入指定状态（不走点击规则），并标记为未同步
func (ms *MarkSet) Set(m Mark) {
	ms.store(m)
	ms.unsynced[m.Key] = true
}

func (ms *MarkSet) store(m Mark) {
	if m.Status.Marked() {
		ms.marks[m.Key] = m
		delete(ms.removed, m.Key)
		return
	}
	delete(ms.marks, m.Key)
	ms.removed[m.Key] = m.MarkedAt
}

// current 该身份当前生效的写入，删除以未标记状态表示
func (ms *MarkSet) current(key MarkKey) (Mark, bool) {
	if m, ok := ms.marks[key]; ok {
		return m, true
	}
	if at, ok := ms.removed[key]; ok {
		return Mark{Key: key, Status: StatusUnmarked, MarkedAt: at}, true
	}
	return Mark{}, false
}

// supersedes next 是否覆盖 cur：时间更新者胜；同一时刻状态优先级高者胜，完全相同视为重放
func supersedes(next, cur Mark) bool {
	if !next.MarkedAt.Equal(cur.MarkedAt) {
		return next.MarkedAt.After(cur.MarkedAt)
	}
	return statusRank(next.Status) >= statusRank(cur.Status)
}

// statusRank 同一时刻冲突时的优先级：取消上课 > 缺勤 > 出勤 > 未标记
func statusRank(s Status) int {
	switch s {
	case StatusCancelled:
		return 3
	case StatusAbsent:
		return 2
	case StatusPresent:
		return 1
	default:
		return 0
	}
}

// MarkSynced 写入成功后清除未同步标记
func (ms *MarkSet) MarkSynced(key MarkKey) {
	delete(ms.unsynced, key)
}

// MarkFailed 写入失败：保留乐观状态与未同步标记，由调用方提示用户
func (ms *MarkSet) MarkFailed(key MarkKey) {
	ms.unsynced[key] = true
}

// RemovedAt 该身份最近一次取消标记的时间，没有时返回零值
func (ms *MarkSet) RemovedAt(key MarkKey) time.Time {
	return ms.removed[key]
}

// IsUnsynced 该身份是否有尚未写入成功的本地修改
func (ms *MarkSet) IsUnsynced(key MarkKey) bool {
	return ms.unsynced[key]
}

// Unsynced 全部未同步的身份
func (ms *MarkSet) Unsynced() []MarkKey {
	keys := make([]MarkKey, 0, len(ms.unsynced))
	for k := range ms.unsynced {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Get 按完整身份查询
func (ms *MarkSet) Get(key MarkKey) (Mark, bool) {
	m, ok := ms.marks[key]
	return m, ok
}

// Lookup 展示层查询：先按 (课程, 日期, 开始时间) 精确查找，
// 找不到时回退到只有课程 + 日期的旧数据（每天仅一节时不带开始时间）。
func (ms *MarkSet) Lookup(date string, slot SlotKey) (Mark, bool) {
	if m, ok := ms.marks[MarkKey{SubjectCode: slot.SubjectCode, ClassDate: date, TimeStart: slot.TimeStart}]; ok {
		return m, true
	}
	if slot.TimeStart == "" {
		return Mark{}, false
	}
	m, ok := ms.marks[MarkKey{SubjectCode: slot.SubjectCode, ClassDate: date}]
	return m, ok
}

// Len 记录数
func (ms *MarkSet) Len() int { return len(ms.marks) }

// Marks 全部记录，按日期、课程、时间排序
func (ms *MarkSet) Marks() []Mark {
	out := make([]Mark, 0, len(ms.marks))
	for _, m := range ms.marks {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

// OnDate 某日的全部记录
func (ms *MarkSet) OnDate(date string) []Mark {
	out := make([]Mark, 0)
	for _, m := range ms.Marks() {
		if m.Key.ClassDate == date {
			out = append(out, m)
		}
	}
	return out
}

func sortKeys(keys []MarkKey) {
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
}

func keyLess(a, b MarkKey) bool {
	if a.ClassDate != b.ClassDate {
		return a.ClassDate < b.ClassDate
	}
	if a.SubjectCode != b.SubjectCode {
		return a.SubjectCode < b.SubjectCode
	}
	return a.TimeStart < b.TimeStart
}
