package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/MicroTrends/internal/app/run"
	"github.com/John-Robertt/MicroTrends/internal/config"
)

var _ run.Observer = (*phaseUI)(nil)

// phaseUI 把流水线阶段事件渲染成人读的进度行。
//
// 设计目标：
// - 所有过程信息写 stderr，不污染 stdout 的输出契约（stdout 只有快照路径）
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type phaseUI struct {
	w io.Writer
}

func newPhaseUI(w io.Writer) *phaseUI {
	return &phaseUI{w: w}
}

func (p *phaseUI) OnStart(eff config.EffectiveConfig) {
	fmt.Fprintf(p.w, "[%s] microtrends run（platform=%s，趋势目标 %d）\n",
		time.Now().Format("15:04:05"), eff.Platform, eff.TrendingTarget)
}

func (p *phaseUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}

	fmt.Fprintf(p.w, "[%s] %-12s %s（%.1fs）\n",
		time.Now().Format("15:04:05"), name, strings.Join(parts, " "), dur.Seconds())
}
