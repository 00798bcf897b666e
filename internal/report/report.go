package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/MicroTrends/internal/domain"
	"github.com/John-Robertt/MicroTrends/internal/infra/fsx"
)

// Topics 在完整合并语料上做三张榜单：话题 / 建议搜索词 / 声音，
// 各取出现次数 Top k。排序：次数降序，同次数按 key 字典序
// （显式 tie-break，不依赖 map 遍历顺序）。
func Topics(rows []domain.VideoRecord, k int) domain.Topics {
	hashtagCount := make(map[string]int)
	suggestCount := make(map[string]int)
	soundCount := make(map[string]int)

	for i := range rows {
		for _, h := range rows[i].Hashtags {
			hashtagCount[h]++
		}
		for _, w := range rows[i].SuggestWords {
			suggestCount[w]++
		}
		if sid := rows[i].Music.ID; sid != "" {
			soundCount[sid]++
		}
	}

	t := domain.Topics{
		TopHashtags:     make([]domain.TagCount, 0, k),
		TopSuggestWords: make([]domain.PhraseCount, 0, k),
		TopSounds:       make([]domain.SoundCount, 0, k),
	}
	for _, kv := range topPairs(hashtagCount, k) {
		t.TopHashtags = append(t.TopHashtags, domain.TagCount{Tag: kv.key, Count: kv.count})
	}
	for _, kv := range topPairs(suggestCount, k) {
		t.TopSuggestWords = append(t.TopSuggestWords, domain.PhraseCount{Phrase: kv.key, Count: kv.count})
	}
	for _, kv := range topPairs(soundCount, k) {
		t.TopSounds = append(t.TopSounds, domain.SoundCount{SoundID: kv.key, Count: kv.count})
	}
	return t
}

type pair struct {
	key   string
	count int
}

func topPairs(freq map[string]int, k int) []pair {
	if k <= 0 || len(freq) == 0 {
		return nil
	}
	pairs := make([]pair, 0, len(freq))
	for key, c := range freq {
		pairs = append(pairs, pair{key: key, count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].key < pairs[j].key
	})
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}

// FileName 返回按运行日期命名的快照文件名。
func FileName(prefix, date string) string {
	return fmt.Sprintf("%s_%s.json", prefix, date)
}

// WriteSnapshot 把快照原子写入 dir 下，返回完整路径。
// 缩进输出：快照是给人和下游脚本都要看的文档，可读性优先于体积。
func WriteSnapshot(dir, prefix string, snap domain.Snapshot) (string, error) {
	name := FileName(prefix, snap.Meta.Date)
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("快照序列化失败：%w", err)
	}
	b = append(b, '\n')
	if err := fsx.WriteFileAtomicReplace(dir, name, b); err != nil {
		return "", fmt.Errorf("快照写入失败：%w", err)
	}
	return filepath.Join(dir, name), nil
}
