package domain

import "sort"

// Snapshot 是对外稳定输出（microtrends_<date>.json）的结构。
//
// 字段名即输出契约：下游（看板/分析脚本）按这些 key 消费，改名等于破坏兼容。
type Snapshot struct {
	Meta           Meta                 `json:"meta"`
	Topics         Topics               `json:"topics"`
	SoundMeta      map[string]SoundMeta `json:"sound_meta"`
	EmergingSounds []SoundMeta          `json:"emerging_sounds"`
	Items          []VideoRecord        `json:"items"`
}

type Meta struct {
	Date string `json:"date"`

	MSTokenPresent bool `json:"ms_token_present"`
	ProxyPresent   bool `json:"proxy_present"`

	Counts       Counts       `json:"counts"`
	SeedAppended SeedAppended `json:"seed_appended"`
	Targets      Targets      `json:"targets"`

	// Phases 聚合各采集阶段的逐单元结果（成功/跳过及原因），
	// 取代过去“吞掉异常只留日志”的做法。
	Phases []PhaseSummary `json:"phases"`

	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type Counts struct {
	Trending    int `json:"trending"`
	AccountsRaw int `json:"accounts_raw"`
	HashtagsRaw int `json:"hashtags_raw"`
	SoundsRaw   int `json:"sounds_raw"`
	UniqueTotal int `json:"unique_total"`
}

type SeedAppended struct {
	AddedCreators            int `json:"added_creators"`
	AddedHashtags            int `json:"added_hashtags"`
	AddedHashtagsFromSuggest int `json:"added_hashtags_from_suggest_phrases"`
	AddedSuggestWords        int `json:"added_suggest_words"`
	AddedSounds              int `json:"added_sounds"`

	Files SeedFiles `json:"files"`
}

type SeedFiles struct {
	BigAccounts      string `json:"big_accounts"`
	SeedHashtags     string `json:"seed_hashtags"`
	SeedSuggestWords string `json:"seed_suggest_words"`
	SeedSounds       string `json:"seed_sounds"`
}

type Targets struct {
	TrendingTarget  int `json:"trending_target"`
	AccountsChecked int `json:"accounts_checked"`
	PerAccountLimit int `json:"per_account_limit"`
	HashtagsChecked int `json:"hashtags_checked"`
	PerHashtagLimit int `json:"per_hashtag_limit"`
	SoundsChecked   int `json:"sounds_checked"`
	PerSoundLimit   int `json:"per_sound_limit"`
}

// PhaseSummary 是单个采集阶段的逐单元结果汇总。
// 单元失败只会变成一条 skip（带原因），绝不让整个阶段中断。
type PhaseSummary struct {
	Phase   string     `json:"phase"`
	Units   int        `json:"units"`
	OK      int        `json:"ok"`
	Skipped int        `json:"skipped"`
	Skips   []UnitSkip `json:"skips,omitempty"`
}

type UnitSkip struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

type Topics struct {
	TopHashtags     []TagCount    `json:"top_hashtags"`
	TopSuggestWords []PhraseCount `json:"top_suggest_words"`
	TopSounds       []SoundCount  `json:"top_sounds"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

type SoundCount struct {
	SoundID string `json:"sound_id"`
	Count   int    `json:"count"`
}

// Finalize 做三件事：
// 1) items 稳定排序：score 降序，同分按 id 字典序（显式 tie-break，不依赖遍历顺序）
// 2) emerging_sounds 按 id 字典序（map 遍历顺序不可复现）
// 3) counts.unique_total 由 items 数量推导
func (s *Snapshot) Finalize() {
	sort.SliceStable(s.Items, func(i, j int) bool {
		if s.Items[i].Score != s.Items[j].Score {
			return s.Items[i].Score > s.Items[j].Score
		}
		return s.Items[i].ID < s.Items[j].ID
	})
	sort.SliceStable(s.EmergingSounds, func(i, j int) bool {
		return s.EmergingSounds[i].ID < s.EmergingSounds[j].ID
	})
	s.Meta.Counts.UniqueTotal = len(s.Items)
}
