package platform

import (
	"context"
	"testing"
)

type namedClient struct{ name string }

func (n *namedClient) Name() string { return n.name }
func (n *namedClient) Trending(context.Context, int) ([]Raw, error) {
	return nil, nil
}
func (n *namedClient) AccountVideos(context.Context, string, int) ([]Raw, error) {
	return nil, nil
}
func (n *namedClient) HashtagVideos(context.Context, string, int) ([]Raw, error) {
	return nil, nil
}
func (n *namedClient) SoundVideos(context.Context, string, int) ([]Raw, error) {
	return nil, nil
}
func (n *namedClient) SoundInfo(context.Context, string) (Raw, error) {
	return nil, nil
}

func TestNewRegistry_GetCaseInsensitive(t *testing.T) {
	a := &namedClient{name: "WebAPI"}
	r, err := NewRegistry(a)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	got, ok := r.Get("  webapi ")
	if !ok || got != Client(a) {
		t.Fatalf("按名称查找失败：ok=%v", ok)
	}
	if _, ok := r.Get("unknown"); ok {
		t.Fatalf("未注册名称不应命中")
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	if _, err := NewRegistry(&namedClient{name: "a"}, &namedClient{name: "A"}); err == nil {
		t.Fatalf("重名（大小写归一后）必须报错")
	}
	if _, err := NewRegistry(&namedClient{name: "  "}); err == nil {
		t.Fatalf("空名必须报错")
	}
	if _, err := NewRegistry(nil); err == nil {
		t.Fatalf("nil client 必须报错")
	}
}

func TestRegistry_ZeroValue(t *testing.T) {
	var r Registry
	if _, ok := r.Get("webapi"); ok {
		t.Fatalf("零值注册表不应命中任何名称")
	}
}

func TestDig(t *testing.T) {
	raw := Raw{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
		},
	}
	if got := Dig(raw, "a", "b", "c"); got != "deep" {
		t.Fatalf("期望 deep，实际 %v", got)
	}
	if got := Dig(raw, "a", "x"); got != nil {
		t.Fatalf("缺失路径应得 nil，实际 %v", got)
	}
	if got := Dig(raw, "a", "b", "c", "d"); got != nil {
		t.Fatalf("穿过非 map 值应得 nil，实际 %v", got)
	}
	if got := Dig(nil, "a"); got != nil {
		t.Fatalf("nil raw 应得 nil，实际 %v", got)
	}
}
