package hydrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/MicroTrends/internal/domain"
	"github.com/John-Robertt/MicroTrends/internal/platform"
)

// Hydrator 给声音 ID 做 best-effort 二次补水：查详情、抠出使用量计数。
//
// 约束：
// - 单个声音查询失败/结果为空/形状不对：该声音直接省略，绝不致命
// - 每次查询之间强制间隔 Interval
type Hydrator struct {
	Client   platform.Client
	Interval time.Duration
	Log      *zap.Logger
}

func New(client platform.Client, interval time.Duration, log *zap.Logger) *Hydrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hydrator{Client: client, Interval: interval, Log: log}
}

// SoundMeta 逐个补水 ids，返回成功条目的元数据表（失败的 ID 不出现在表里）。
// ctx 取消时返回已拿到的部分结果和 ctx 错误。
func (h *Hydrator) SoundMeta(ctx context.Context, ids []string) (map[string]domain.SoundMeta, error) {
	out := make(map[string]domain.SoundMeta, len(ids))
	for _, sid := range ids {
		sid = strings.TrimSpace(sid)
		if sid == "" {
			continue
		}
		if _, ok := out[sid]; ok {
			continue
		}

		info, err := h.Client.SoundInfo(ctx, sid)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			h.Log.Warn("声音补水失败，省略", zap.String("sound", sid), zap.Error(err))
		} else if len(info) > 0 {
			out[sid] = Meta(sid, info)
		}

		if err := h.pace(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}

// IDError 是独立补水子命令里单个 ID 的失败记录（不致命，只上报）。
type IDError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// List 按输入顺序逐个补水，成功失败分开返回（独立补水子命令用）。
// 与 SoundMeta 的区别：保留顺序、保留每个失败 ID 及原因。
func (h *Hydrator) List(ctx context.Context, ids []string) ([]domain.SoundMeta, []IDError, error) {
	var items []domain.SoundMeta
	var errs []IDError
	for _, sid := range ids {
		sid = strings.TrimSpace(sid)
		if sid == "" {
			continue
		}

		info, err := h.Client.SoundInfo(ctx, sid)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return items, errs, ctx.Err()
			}
			errs = append(errs, IDError{ID: sid, Error: err.Error()})
		case len(info) == 0:
			errs = append(errs, IDError{ID: sid, Error: "no_info"})
		default:
			items = append(items, Meta(sid, info))
		}

		if err := h.pace(ctx); err != nil {
			return items, errs, err
		}
	}
	return items, errs, nil
}

// Meta 把一条声音详情载荷整理成 SoundMeta。
// title/authorName/original 各有平铺与嵌套（music.*）两个备选位置。
func Meta(soundID string, info platform.Raw) domain.SoundMeta {
	title := firstNonEmpty(
		asString(info["title"]),
		asString(platform.Dig(info, "music", "title")),
	)
	author := firstNonEmpty(
		asString(info["authorName"]),
		asString(platform.Dig(info, "music", "authorName")),
	)

	original := false
	if v, ok := info["original"]; ok {
		original = asBool(v)
	} else {
		original = asBool(platform.Dig(info, "music", "original"))
	}

	return domain.SoundMeta{
		ID:         soundID,
		Title:      title,
		AuthorName: author,
		Original:   original,
		VideoCount: VideoCount(info),
	}
}

// videoCountPaths 是视频计数的有序备选位置表：逐条尝试，取首个可转换值。
// 平台在不同端/版本把计数放过所有这些地方。
var videoCountPaths = [][]string{
	{"stats", "videoCount"},
	{"stats", "videoCountV2"},
	{"stats", "videoCountStr"},
	{"music", "stats", "videoCount"},
	{"music", "videoCount"},
	{"videoCount"},
}

// VideoCount 按路径表解析声音的视频计数；所有位置都失败时返回 nil。
func VideoCount(info platform.Raw) *int64 {
	for _, p := range videoCountPaths {
		if n, ok := coerceCount(platform.Dig(info, p...)); ok {
			return &n
		}
	}
	return nil
}

// coerceCount 接受 int/float（截断）/json.Number/带千分位的数字串。
// 失败视为“字段缺失”，绝不报错。
func coerceCount(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if cleaned == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Emerging 过滤出“新兴”声音：计数非空且严格小于阈值。
func Emerging(meta map[string]domain.SoundMeta, threshold int64) []domain.SoundMeta {
	var out []domain.SoundMeta
	for _, m := range meta {
		if m.Emerging(threshold) {
			out = append(out, m)
		}
	}
	return out
}

// ReadIDFile 读取声音 ID 输入文件（独立补水子命令用）。
//
// - .json：接受裸数组，或对象下 sounds/sound_ids/soundIds/ids 任一键的数组
// - 其他扩展名：按行读（跳过空行/'#' 注释行）
// 两种来源都按首见顺序去重。
func ReadIDFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取声音 ID 文件 %q 失败：%w", path, err)
	}

	var ids []string
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		var payload any
		if err := json.Unmarshal(b, &payload); err != nil {
			return nil, fmt.Errorf("声音 ID 文件 %q 不是合法 JSON：%w", path, err)
		}
		ids = idsFromJSONPayload(payload)
	} else {
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ids = append(ids, line)
		}
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func idsFromJSONPayload(payload any) []string {
	collect := func(list []any) []string {
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s := strings.TrimSpace(asString(v)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	if list, ok := payload.([]any); ok {
		return collect(list)
	}
	if m, ok := payload.(map[string]any); ok {
		for _, key := range []string{"sounds", "sound_ids", "soundIds", "ids"} {
			if list, ok := m[key].([]any); ok {
				return collect(list)
			}
		}
	}
	return nil
}

func (h *Hydrator) pace(ctx context.Context) error {
	if h.Interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(h.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
