package platform

import "context"

// Raw 是平台返回的一条原始载荷（松散 JSON 对象）。
// 字段形状随平台前端版本漂移，所以这里不定义结构体：
// 固定字段的提取和兜底全部集中在 extract/hydrate 的路径表里。
type Raw = map[string]any

// Client 把“平台怎么查”限制在实现内部；核心流程只依赖这五个能力。
//
// 约束：
// - 实现不做限速、不做去重（这些由 collect 层统一实现）
// - count 是单次调用的条数上限；实现可以返回更少，不允许返回更多
// - 返回的每个元素必须是独立的 map（调用方会持有并修改）
type Client interface {
	Name() string
	Trending(ctx context.Context, count int) ([]Raw, error)
	AccountVideos(ctx context.Context, username string, count int) ([]Raw, error)
	HashtagVideos(ctx context.Context, tag string, count int) ([]Raw, error)
	SoundVideos(ctx context.Context, soundID string, count int) ([]Raw, error)
	SoundInfo(ctx context.Context, soundID string) (Raw, error)
}

// Dig 沿 keys 逐层取嵌套字段；任何一层不是 map 或缺失即返回 nil。
func Dig(raw Raw, keys ...string) any {
	var cur any = raw
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}
