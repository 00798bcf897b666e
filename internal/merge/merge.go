package merge

import "github.com/John-Robertt/MicroTrends/internal/domain"

// Merge 把多个采集阶段的记录按 ID 收敛为唯一语料。
//
// 规则：
// - 首见记录成为规范记录，字段值以首见为准
// - 同 ID 的后续观察只做两件事：追加来源标记（集合语义）、
//   回填当前缺失的缩略图 URL（已填不覆盖）
// - 没有 ID 的记录直接丢弃
// - 输出保持首见顺序（与输入的采集顺序一致）
func Merge(rows []domain.VideoRecord) []domain.VideoRecord {
	byID := make(map[string]int, len(rows))
	out := make([]domain.VideoRecord, 0, len(rows))

	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		idx, ok := byID[r.ID]
		if !ok {
			byID[r.ID] = len(out)
			out = append(out, r)
			continue
		}

		canon := &out[idx]
		for _, tag := range r.SourceTags() {
			canon.AddSource(tag)
		}
		if canon.CoverURL == "" && r.CoverURL != "" {
			canon.CoverURL = r.CoverURL
		}
		if canon.AuthorAvatarURL == "" && r.AuthorAvatarURL != "" {
			canon.AuthorAvatarURL = r.AuthorAvatarURL
		}
	}
	return out
}
