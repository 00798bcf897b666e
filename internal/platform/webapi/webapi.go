package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/MicroTrends/internal/platform"
)

const (
	defaultBaseURL = "https://www.tiktok.com"

	// maxBodyBytes 限制单次页面读取量；状态脚本通常在 1-3 MB 内。
	maxBodyBytes = 8 << 20
)

// Client 通过平台 Web 页面内嵌的 JSON 应用状态获取数据。
//
// 平台前端把当前页的全部 item 数据渲染进一个 <script type="application/json">
// 状态块（新版 id 为 __UNIVERSAL_DATA_FOR_REHYDRATION__，旧版为 SIGI_STATE）。
// 抓整页 -> goquery 取脚本 -> 解析 JSON，比逆向内部接口稳定得多。
//
// 约束：
// - 不做限速/去重/重试策略（限速去重在 collect 层，重试在 httpx 层）
// - 数字一律以 json.Number 保留（item ID 超出 float64 精度）
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func New(httpClient *http.Client, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{HTTP: httpClient, BaseURL: baseURL}
}

func (c *Client) Name() string { return "webapi" }

// Trending 抓取首页 For You 流的当前一批 item。
// 每次调用都重新取页面：平台每次渲染给出一批新推荐，重复由上层去重。
func (c *Client) Trending(ctx context.Context, count int) ([]platform.Raw, error) {
	return c.pageItems(ctx, c.BaseURL+"/", count)
}

func (c *Client) AccountVideos(ctx context.Context, username string, count int) ([]platform.Raw, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, errors.New("username 不能为空")
	}
	return c.pageItems(ctx, c.BaseURL+"/@"+url.PathEscape(username), count)
}

func (c *Client) HashtagVideos(ctx context.Context, tag string, count int) ([]platform.Raw, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	if tag == "" {
		return nil, errors.New("tag 不能为空")
	}
	return c.pageItems(ctx, c.BaseURL+"/tag/"+url.PathEscape(tag), count)
}

func (c *Client) SoundVideos(ctx context.Context, soundID string, count int) ([]platform.Raw, error) {
	soundID = strings.TrimSpace(soundID)
	if soundID == "" {
		return nil, errors.New("soundID 不能为空")
	}
	// 音乐页路由只看结尾的数字 ID，slug 部分任意。
	return c.pageItems(ctx, c.BaseURL+"/music/sound-"+url.PathEscape(soundID), count)
}

// SoundInfo 返回音乐详情页状态里的 musicInfo 块（含 music + stats）。
func (c *Client) SoundInfo(ctx context.Context, soundID string) (platform.Raw, error) {
	soundID = strings.TrimSpace(soundID)
	if soundID == "" {
		return nil, errors.New("soundID 不能为空")
	}
	state, err := c.fetchState(ctx, c.BaseURL+"/music/sound-"+url.PathEscape(soundID))
	if err != nil {
		return nil, err
	}
	if info := musicInfoFromState(state); info != nil {
		return info, nil
	}
	return nil, fmt.Errorf("音乐页状态里没有 musicInfo（sound=%s）", soundID)
}

func (c *Client) pageItems(ctx context.Context, pageURL string, count int) ([]platform.Raw, error) {
	state, err := c.fetchState(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	items := itemsFromState(state)
	if count > 0 && len(items) > count {
		items = items[:count]
	}
	return items, nil
}

// fetchState 抓取页面并解出内嵌状态 JSON。
func (c *Client) fetchState(ctx context.Context, pageURL string) (map[string]any, error) {
	if c.HTTP == nil {
		return nil, errors.New("http client 不能为空")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("页面返回 %d：%s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	// 新旧两种状态脚本都试：前端灰度期间两者并存过。
	blob := strings.TrimSpace(doc.Find("script#__UNIVERSAL_DATA_FOR_REHYDRATION__").First().Text())
	if blob == "" {
		blob = strings.TrimSpace(doc.Find("script#SIGI_STATE").First().Text())
	}
	if blob == "" {
		return nil, fmt.Errorf("页面里没有内嵌状态脚本（疑似验证页/拦截页）：%s", pageURL)
	}

	dec := json.NewDecoder(strings.NewReader(blob))
	dec.UseNumber()
	var state map[string]any
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("状态脚本不是合法 JSON：%w", err)
	}
	return state, nil
}

// itemsFromState 从状态里按已知位置取 item 列表。
//
// 已知形状（按优先级）：
// 1) SIGI_STATE.ItemModule：map[itemID]item
// 2) __DEFAULT_SCOPE__.<scope>.itemList：[]item
// 3) __DEFAULT_SCOPE__.<scope>.itemInfo.itemStruct：单条 item（详情页）
func itemsFromState(state map[string]any) []platform.Raw {
	if im, ok := state["ItemModule"].(map[string]any); ok && len(im) > 0 {
		// map 遍历顺序不可复现；按 itemID 排序保证同一页面两次解析结果一致。
		ids := make([]string, 0, len(im))
		for id := range im {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]platform.Raw, 0, len(ids))
		for _, id := range ids {
			if item, ok := im[id].(map[string]any); ok {
				out = append(out, item)
			}
		}
		return out
	}

	scope, ok := state["__DEFAULT_SCOPE__"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scope))
	for name := range scope {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []platform.Raw
	for _, name := range names {
		sc, ok := scope[name].(map[string]any)
		if !ok {
			continue
		}
		if list, ok := sc["itemList"].([]any); ok {
			for _, it := range list {
				if item, ok := it.(map[string]any); ok {
					out = append(out, item)
				}
			}
		}
		if item, ok := platform.Dig(sc, "itemInfo", "itemStruct").(map[string]any); ok {
			out = append(out, item)
		}
	}
	return out
}

func musicInfoFromState(state map[string]any) platform.Raw {
	if info, ok := platform.Dig(state, "MusicModule", "musicInfo").(map[string]any); ok {
		return info
	}
	if scope, ok := state["__DEFAULT_SCOPE__"].(map[string]any); ok {
		for _, name := range sortedKeys(scope) {
			if info, ok := platform.Dig(scope, name, "musicInfo").(map[string]any); ok {
				return info
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
