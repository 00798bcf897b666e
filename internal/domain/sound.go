package domain

// SoundMeta 是对单个声音 ID 的二次查询结果（仅本次运行内有效，不跨运行持久化）。
//
// VideoCount 为 nil 表示补水时没有在任何已知字段位置拿到可用计数；
// 输出时保留 null（而不是省略），便于下游区分“没查到”与“确实为 0”。
type SoundMeta struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	Original   bool   `json:"original"`
	VideoCount *int64 `json:"video_count"`
}

// Emerging 判断该声音是否“新兴”：补水计数非空且严格小于阈值。
func (m SoundMeta) Emerging(threshold int64) bool {
	return m.VideoCount != nil && *m.VideoCount < threshold
}
