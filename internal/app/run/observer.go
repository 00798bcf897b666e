package run

import (
	"time"

	"github.com/John-Robertt/MicroTrends/internal/config"
)

// Observer 用于把“运行进度/阶段统计”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的输出契约）
// - 回调都在流水线 goroutine 里同步触发，实现不必并发安全，但不能阻塞太久
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户很快看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在每个阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
}
