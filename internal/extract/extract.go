package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/John-Robertt/MicroTrends/internal/domain"
	"github.com/John-Robertt/MicroTrends/internal/platform"
)

// Record 把一条原始平台载荷映射为规范化 VideoRecord。
//
// 约束：
// - 纯函数：相同输入 => 相同输出；任何字段缺失/形状漂移都不 panic、不报错
// - 字段兜底全部走路径表（见下），新增备选位置只改数据不改分支
func Record(raw platform.Raw, source string) domain.VideoRecord {
	id := firstString(raw, idPaths)
	username := asString(platform.Dig(raw, "author", "uniqueId"))

	views := firstInt(raw, viewsPaths)
	likes := firstInt(raw, likesPaths)
	comments := firstInt(raw, commentsPaths)
	shares := firstInt(raw, sharesPaths)

	hashtags := Hashtags(raw)
	suggest := SuggestWords(raw)

	musicID := asString(platform.Dig(raw, "music", "id"))

	rec := domain.VideoRecord{
		ID:         id,
		URL:        BuildURL(username, id),
		Source:     source,
		Desc:       asString(raw["desc"]),
		CreateTime: asInt64(raw["createTime"]),
		Author: domain.Author{
			UniqueID: username,
			Nickname: asString(platform.Dig(raw, "author", "nickname")),
			Verified: asBool(platform.Dig(raw, "author", "verified")),
		},
		Stats: domain.Stats{
			Views:    views,
			Likes:    likes,
			Comments: comments,
			Shares:   shares,
		},
		Hashtags:     hashtags,
		SuggestWords: suggest,
		Music: domain.Music{
			ID:         musicID,
			Title:      asString(platform.Dig(raw, "music", "title")),
			AuthorName: asString(platform.Dig(raw, "music", "authorName")),
			Original:   asBool(platform.Dig(raw, "music", "original")),
		},
		CoverURL:        firstURL(platform.Dig(raw, "video", "cover")),
		AuthorAvatarURL: firstURL(platform.Dig(raw, "author", "avatarThumb")),
	}

	base := safeRatio(float64(shares), float64(views))*4.0 +
		safeRatio(float64(comments), float64(views))*3.0 +
		safeRatio(float64(likes), float64(views))*1.0
	if len(suggest) > 0 {
		base += 2.0
	}
	if musicID != "" {
		base += 1.0
	}
	rec.ScoreBase = base

	return rec
}

// BuildURL 由作者 handle 和 item ID 推导落地页；任一缺失则为空。
func BuildURL(username, id string) string {
	if username == "" || id == "" {
		return ""
	}
	return "https://www.tiktok.com/@" + username + "/video/" + id
}

// Hashtags 从两个备选位置读取话题标签并保持首见顺序去重：
// 1) textExtra：正文里的 span 级标注
// 2) challenges：独立的话题对象列表
// 全部小写。
func Hashtags(raw platform.Raw) []string {
	var tags []string
	if list, ok := raw["textExtra"].([]any); ok {
		for _, e := range list {
			if m, ok := e.(map[string]any); ok {
				if t := asString(m["hashtagName"]); t != "" {
					tags = append(tags, strings.ToLower(t))
				}
			}
		}
	}
	if list, ok := raw["challenges"].([]any); ok {
		for _, e := range list {
			if m, ok := e.(map[string]any); ok {
				if t := asString(m["title"]); t != "" {
					tags = append(tags, strings.ToLower(t))
				}
			}
		}
	}
	return dedupKeepOrder(tags)
}

// SuggestWords 读取建议搜索词（嵌套结构），小写 + 首见顺序去重。
func SuggestWords(raw platform.Raw) []string {
	var out []string
	blocks, ok := platform.Dig(raw, "videoSuggestWordsList", "video_suggest_words_struct").([]any)
	if !ok {
		return nil
	}
	for _, b := range blocks {
		bm, ok := b.(map[string]any)
		if !ok {
			continue
		}
		wordsList, ok := bm["words"].([]any)
		if !ok {
			continue
		}
		for _, w := range wordsList {
			wm, ok := w.(map[string]any)
			if !ok {
				continue
			}
			if word := strings.ToLower(strings.TrimSpace(asString(wm["word"]))); word != "" {
				out = append(out, word)
			}
		}
	}
	return dedupKeepOrder(out)
}

// ---------- 提取路径表 ----------
//
// 每个字段一张有序路径表，逐条尝试、取首个可转换值。
// 平台字段改名（playCount -> viewCount 这类漂移）只需在这里加一行。

var idPaths = [][]string{
	{"id"},
	{"itemId"},
	{"aweme_id"},
}

var viewsPaths = [][]string{
	{"stats", "playCount"},
	{"stats", "viewCount"},
}

var likesPaths = [][]string{
	{"stats", "diggCount"},
	{"stats", "likeCount"},
}

var commentsPaths = [][]string{
	{"stats", "commentCount"},
}

var sharesPaths = [][]string{
	{"stats", "shareCount"},
}

func firstString(raw platform.Raw, paths [][]string) string {
	for _, p := range paths {
		if s := asString(platform.Dig(raw, p...)); s != "" {
			return s
		}
	}
	return ""
}

func firstInt(raw platform.Raw, paths [][]string) int64 {
	for _, p := range paths {
		if n, ok := coerceInt64(platform.Dig(raw, p...)); ok {
			return n
		}
	}
	return 0
}

// ---------- 数值/类型兜底 ----------

// safeRatio 永不除零、永不 panic：分母 <=0 一律得 0。
func safeRatio(n, d float64) float64 {
	if d > 0 {
		return n / d
	}
	return 0
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func asInt64(v any) int64 {
	n, _ := coerceInt64(v)
	return n
}

// coerceInt64 接受 int/float（截断）/json.Number/带千分位的数字串。
// 转换失败视为“字段缺失”，绝不报错。
func coerceInt64(v any) (int64, bool) {
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

// firstURL 从图片对象取首个引用 URL；兼容 url_list/urlList 两种命名，
// 也接受已经是字符串的情况。
func firstURL(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"url_list", "urlList"} {
		if list, ok := m[key].([]any); ok && len(list) > 0 {
			if s, ok := list[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func dedupKeepOrder(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
