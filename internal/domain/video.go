package domain

// VideoRecord 是整条流水线的规范化单元：一条短视频在本次运行中的全部可用信息。
//
// 约束：
// - 合并后整个语料中每个 ID 恰好对应一条记录
// - Source/Sources 二选一：单来源时只填 Source；首次跨来源碰撞后迁移到 Sources，
//   此后只增不减（来源标记一旦记录永不丢失）
// - CoverURL/AuthorAvatarURL 属于机会性补全字段：为空才允许回填，已填不覆盖
type VideoRecord struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`

	Source  string   `json:"source,omitempty"`
	Sources []string `json:"sources,omitempty"`

	Desc       string `json:"desc"`
	CreateTime int64  `json:"createTime"`

	Author Author `json:"author"`
	Stats  Stats  `json:"stats"`

	Hashtags     []string `json:"hashtags"`
	SuggestWords []string `json:"suggest_words"`

	Music Music `json:"music"`

	// 缩略图只保留引用 URL（完整 raw 载荷不落地）。
	CoverURL        string `json:"cover_url,omitempty"`
	AuthorAvatarURL string `json:"author_avatar_url,omitempty"`

	// ScoreBase 由提取阶段一次性算出；Score 要等池级打分跑完才有意义。
	ScoreBase float64 `json:"score_base"`
	Score     float64 `json:"score"`
}

// SourceTags 返回全部来源标记（屏蔽 Source/Sources 的单/多表示差异）。
func (r *VideoRecord) SourceTags() []string {
	if len(r.Sources) > 0 {
		return r.Sources
	}
	if r.Source != "" {
		return []string{r.Source}
	}
	return nil
}

// AddSource 追加一个来源标记（集合语义：已存在则忽略）。
// 首次出现第二个来源时把单值 Source 迁移为 Sources 列表。
func (r *VideoRecord) AddSource(tag string) {
	if tag == "" {
		return
	}
	if len(r.Sources) == 0 {
		if r.Source == "" {
			r.Source = tag
			return
		}
		if r.Source == tag {
			return
		}
		r.Sources = []string{r.Source}
		r.Source = ""
	}
	for _, s := range r.Sources {
		if s == tag {
			return
		}
	}
	r.Sources = append(r.Sources, tag)
}

type Author struct {
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
	Verified bool   `json:"verified"`
}

// Stats 的四个计数缺失时一律取 0（提取阶段已做数值兜底）。
type Stats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

type Music struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	Original   bool   `json:"original"`

	// VideoCount 由声音补水阶段回填；补水前保持缺省（不输出）。
	VideoCount *int64 `json:"video_count,omitempty"`
}
