package seed

import (
	"regexp"
	"sort"
	"strings"

	"github.com/John-Robertt/MicroTrends/internal/domain"
)

// 建议搜索词短于 4 个字符基本是噪声（介词、人称），不进种子。
const minSuggestLen = 4

// Limits 控制每个类别取频次 Top 几、以及话题最短长度。
type Limits struct {
	TopHashtags     int
	TopCreators     int
	TopSuggestWords int
	TopSounds       int
	MinHashtagLen   int
}

// Expansion 是一次种子扩张的候选集（尚未写回文件）。
type Expansion struct {
	Hashtags     []string
	Creators     []string
	SuggestWords []string
	Sounds       []string
}

// FromTrending 只从本次运行的趋势子集推导下一轮种子候选。
//
// 约束：刻意不吃完整合并语料——账号/话题/声音阶段本身由种子驱动，
// 若再反哺种子，同一次运行内就会出现种子自举（反馈环失控）。
func FromTrending(rows []domain.VideoRecord, lim Limits) Expansion {
	hashtagFreq := make(map[string]int)
	creatorFreq := make(map[string]int)
	suggestFreq := make(map[string]int)
	soundFreq := make(map[string]int)

	for i := range rows {
		for _, h := range rows[i].Hashtags {
			if len(h) >= lim.MinHashtagLen {
				hashtagFreq[h]++
			}
		}
		if u := strings.ToLower(rows[i].Author.UniqueID); u != "" {
			creatorFreq[u]++
		}
		for _, w := range rows[i].SuggestWords {
			w = strings.ToLower(strings.TrimSpace(w))
			if len(w) >= minSuggestLen {
				suggestFreq[w]++
			}
		}
		if sid := rows[i].Music.ID; sid != "" {
			soundFreq[sid]++
		}
	}

	return Expansion{
		Hashtags:     topN(hashtagFreq, lim.TopHashtags),
		Creators:     topN(creatorFreq, lim.TopCreators),
		SuggestWords: topN(suggestFreq, lim.TopSuggestWords),
		Sounds:       topN(soundFreq, lim.TopSounds),
	}
}

var nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// PhraseToHashtagCandidates 把建议搜索词转成话题风格的种子候选。
//
// 规范化：小写 -> 去掉非字母数字非空白 -> 压缩内部空白；
// 然后给出拼接形和下划线形两个候选（各自长度达标才保留）。
// 例："Raah Skeleton!" -> ["raahskeleton", "raah_skeleton"]
func PhraseToHashtagCandidates(phrase string, minLen int) []string {
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return nil
	}

	cleaned := nonAlnumSpace.ReplaceAllString(p, "")
	cleaned = strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return nil
	}

	joined := strings.ReplaceAll(cleaned, " ", "")
	underscored := strings.ReplaceAll(cleaned, " ", "_")

	var out []string
	if len(joined) >= minLen {
		out = append(out, joined)
	}
	if len(underscored) >= minLen && underscored != joined {
		out = append(out, underscored)
	}
	return out
}

// topN 取频次 Top n 的 key：频次降序，同频按 key 字典序（显式确定性 tie-break）。
func topN(freq map[string]int, n int) []string {
	if n <= 0 || len(freq) == 0 {
		return nil
	}
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
