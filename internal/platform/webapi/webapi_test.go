package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func page(scriptID, blob string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head>
<script id=%q type="application/json">%s</script>
</head><body></body></html>`, scriptID, blob)
}

func serve(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL)
}

func TestTrending_SigiItemModule(t *testing.T) {
	blob := `{"ItemModule":{
		"7002":{"id":"7002","desc":"two"},
		"7001":{"id":"7001","desc":"one"}
	}}`
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("期望请求首页，实际 %q", r.URL.Path)
		}
		fmt.Fprint(w, page("SIGI_STATE", blob))
	})

	items, err := c.Trending(context.Background(), 10)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 条，实际 %d", len(items))
	}
	// ItemModule 是 map：必须按 itemID 排序保证可复现。
	if items[0]["id"] != "7001" || items[1]["id"] != "7002" {
		t.Fatalf("item 顺序错误：%v %v", items[0]["id"], items[1]["id"])
	}
}

func TestTrending_UniversalItemList(t *testing.T) {
	blob := `{"__DEFAULT_SCOPE__":{
		"webapp.recommend":{"itemList":[{"id":"1"},{"id":"2"},{"id":"3"}]}
	}}`
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("__UNIVERSAL_DATA_FOR_REHYDRATION__", blob))
	})

	items, err := c.Trending(context.Background(), 2)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("count 应截断到 2，实际 %d", len(items))
	}
	if items[0]["id"] != "1" {
		t.Fatalf("期望首条 id=1，实际 %v", items[0]["id"])
	}
}

func TestFetchState_NumbersKeptAsJSONNumber(t *testing.T) {
	// item ID 超出 float64 精度：必须整串保留。
	blob := `{"ItemModule":{"7424891252283306262":{"id":7424891252283306262}}}`
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("SIGI_STATE", blob))
	})

	items, err := c.Trending(context.Background(), 1)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	n, ok := items[0]["id"].(json.Number)
	if !ok {
		t.Fatalf("数字应保留为 json.Number，实际 %T", items[0]["id"])
	}
	if n.String() != "7424891252283306262" {
		t.Fatalf("精度丢失：%s", n)
	}
}

func TestAccountVideos_URLAndNormalize(t *testing.T) {
	var gotPath string
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, page("SIGI_STATE", `{"ItemModule":{"1":{"id":"1"}}}`))
	})

	if _, err := c.AccountVideos(context.Background(), "@Alice", 5); err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	if gotPath != "/@Alice" {
		t.Fatalf("期望路径 /@Alice，实际 %q", gotPath)
	}

	if _, err := c.AccountVideos(context.Background(), "  ", 5); err == nil {
		t.Fatalf("空 username 必须报错")
	}
}

func TestHashtagVideos_URL(t *testing.T) {
	var gotPath string
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, page("SIGI_STATE", `{"ItemModule":{"1":{"id":"1"}}}`))
	})
	if _, err := c.HashtagVideos(context.Background(), "#dance", 5); err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	if gotPath != "/tag/dance" {
		t.Fatalf("期望路径 /tag/dance，实际 %q", gotPath)
	}
}

func TestSoundInfo_MusicModule(t *testing.T) {
	blob := `{"MusicModule":{"musicInfo":{"music":{"id":"m1","title":"song"},"stats":{"videoCount":321}}}}`
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/music/sound-") {
			t.Errorf("期望音乐页路径，实际 %q", r.URL.Path)
		}
		fmt.Fprint(w, page("SIGI_STATE", blob))
	})

	info, err := c.SoundInfo(context.Background(), "m1")
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	if info["stats"] == nil {
		t.Fatalf("musicInfo 块应整体返回：%v", info)
	}
}

func TestSoundInfo_MissingBlock(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("SIGI_STATE", `{}`))
	})
	if _, err := c.SoundInfo(context.Background(), "m1"); err == nil {
		t.Fatalf("状态里没有 musicInfo 必须报错")
	}
}

func TestFetchState_NoStateScript(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>Verify you are human</body></html>")
	})
	_, err := c.Trending(context.Background(), 5)
	if err == nil {
		t.Fatalf("无状态脚本（拦截页）必须报错")
	}
}

func TestFetchState_Non200(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	_, err := c.Trending(context.Background(), 5)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("非 200 必须报错并带状态码，实际 %v", err)
	}
}

func TestItemsFromState_DetailPage(t *testing.T) {
	state := map[string]any{
		"__DEFAULT_SCOPE__": map[string]any{
			"webapp.video-detail": map[string]any{
				"itemInfo": map[string]any{
					"itemStruct": map[string]any{"id": "9"},
				},
			},
		},
	}
	items := itemsFromState(state)
	if len(items) != 1 || items[0]["id"] != "9" {
		t.Fatalf("详情页单条 item 提取失败：%v", items)
	}
}
