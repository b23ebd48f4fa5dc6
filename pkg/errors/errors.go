package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStaleMark 考勤记录写入晚于当前记录的标记时间，被后写覆盖规则拒绝
var ErrStaleMark = errors.New("已有更新的考勤记录，本次写入被忽略")
