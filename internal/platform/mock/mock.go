package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/John-Robertt/MicroTrends/internal/platform"
)

// Client 是离线安全的确定性假平台：不出网、不需要凭证。
//
// 用途：
// - 开发/演示时完整跑一遍流水线（--platform mock）
// - 端到端测试（同样的调用序列永远产出同样的数据）
//
// 行为约定：
// - Trending 从固定大小的池里按序吐 item，吐完返回空批（触发上层 stall 终止）
// - 各单元查询的第一条 item 复用池内某条的 ID：保证跨来源合并路径被真实走到
type Client struct {
	PoolSize int

	mu  sync.Mutex
	off int
}

func New() *Client {
	return &Client{PoolSize: 120}
}

func (c *Client) Name() string { return "mock" }

func (c *Client) Trending(_ context.Context, count int) ([]platform.Raw, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if count < 1 || c.off >= c.PoolSize {
		return nil, nil
	}
	end := c.off + count
	if end > c.PoolSize {
		end = c.PoolSize
	}
	out := make([]platform.Raw, 0, end-c.off)
	for i := c.off; i < end; i++ {
		out = append(out, c.poolItem(i))
	}
	c.off = end
	return out, nil
}

func (c *Client) AccountVideos(_ context.Context, username string, count int) ([]platform.Raw, error) {
	return c.unitItems("account:"+username, username, "", count), nil
}

func (c *Client) HashtagVideos(_ context.Context, tag string, count int) ([]platform.Raw, error) {
	return c.unitItems("hashtag:"+tag, "", tag, count), nil
}

func (c *Client) SoundVideos(_ context.Context, soundID string, count int) ([]platform.Raw, error) {
	items := c.unitItems("sound:"+soundID, "", "", count)
	for _, it := range items {
		if m, ok := it["music"].(map[string]any); ok {
			m["id"] = soundID
		}
	}
	return items, nil
}

func (c *Client) SoundInfo(_ context.Context, soundID string) (platform.Raw, error) {
	if soundID == "" {
		return nil, fmt.Errorf("soundID 不能为空")
	}
	n := int64(hash(soundID) % 5000)
	return platform.Raw{
		"music": map[string]any{
			"id":         soundID,
			"title":      "sound " + soundID,
			"authorName": "mockartist",
			"original":   hash(soundID)%2 == 0,
		},
		"stats": map[string]any{
			"videoCount": n,
		},
	}, nil
}

// poolItem 生成趋势池第 i 条 item（形状对齐平台真实载荷的常见字段）。
func (c *Client) poolItem(i int) platform.Raw {
	h := hash(fmt.Sprintf("pool-%d", i))

	author := fmt.Sprintf("creator%02d", i%17)
	soundID := fmt.Sprintf("68%09d", h%23)

	tags := []any{
		map[string]any{"hashtagName": word(h)},
		map[string]any{"hashtagName": word(h >> 3)},
	}
	challenges := []any{
		map[string]any{"title": word(h >> 5)},
	}

	item := platform.Raw{
		"id":         fmt.Sprintf("7%012d", 100000+i),
		"desc":       fmt.Sprintf("mock clip %d #%s", i, word(h)),
		"createTime": int64(1700000000 + i*60),
		"author": map[string]any{
			"uniqueId": author,
			"nickname": "Creator " + author,
			"verified": i%11 == 0,
		},
		"stats": map[string]any{
			"playCount":    int64(1000 + h%90000),
			"diggCount":    int64(h % 9000),
			"commentCount": int64(h % 700),
			"shareCount":   int64(h % 300),
		},
		"textExtra":  tags,
		"challenges": challenges,
		"music": map[string]any{
			"id":         soundID,
			"title":      "sound " + soundID,
			"authorName": "mockartist",
			"original":   h%2 == 0,
		},
		"video": map[string]any{
			"cover": map[string]any{
				"urlList": []any{fmt.Sprintf("https://mock.invalid/cover/%d.jpg", i)},
			},
		},
	}

	// 约 1/3 的 item 带建议搜索词（让建议词相关路径有数据可走）。
	if i%3 == 0 {
		item["videoSuggestWordsList"] = map[string]any{
			"video_suggest_words_struct": []any{
				map[string]any{
					"words": []any{
						map[string]any{"word": word(h>>7) + " " + word(h>>9)},
					},
				},
			},
		}
	}
	return item
}

// unitItems 为某个单元生成 count 条 item；第一条复用池内条目（制造跨来源重复）。
func (c *Client) unitItems(seed, author, tag string, count int) []platform.Raw {
	if count < 1 {
		return nil
	}
	out := make([]platform.Raw, 0, count)

	first := c.poolItem(int(hash(seed)) % c.PoolSize)
	out = append(out, first)

	for k := 1; k < count; k++ {
		h := hash(fmt.Sprintf("%s-%d", seed, k))
		item := c.poolItem(int(h) % c.PoolSize)
		item["id"] = fmt.Sprintf("8%012d", h%1_000_000_000)
		if author != "" {
			item["author"] = map[string]any{
				"uniqueId": author,
				"nickname": "Creator " + author,
				"verified": false,
			}
		}
		if tag != "" {
			item["textExtra"] = []any{map[string]any{"hashtagName": tag}}
		}
		out = append(out, item)
	}
	return out
}

var words = []string{
	"skincare", "fitness", "recipe", "makeup", "travel", "gaming",
	"keyboard", "vintage", "thrift", "matcha", "runclub", "booktok",
}

func word(h uint64) string {
	return words[h%uint64(len(words))]
}

func hash(s string) uint64 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(s))
	return f.Sum64()
}
