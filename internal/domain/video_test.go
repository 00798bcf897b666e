package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestAddSource_MigrationAndSetSemantics(t *testing.T) {
	var r VideoRecord

	r.AddSource("trending")
	if r.Source != "trending" || r.Sources != nil {
		t.Fatalf("首个来源应进单值字段：source=%q sources=%v", r.Source, r.Sources)
	}

	r.AddSource("trending") // 重复：无变化
	if r.Source != "trending" || r.Sources != nil {
		t.Fatalf("重复来源不应触发迁移：source=%q sources=%v", r.Source, r.Sources)
	}

	r.AddSource("hashtag:dance") // 第二个不同来源：迁移成列表
	if r.Source != "" {
		t.Fatalf("迁移后单值字段应清空，实际 %q", r.Source)
	}
	want := []string{"trending", "hashtag:dance"}
	if !reflect.DeepEqual(r.Sources, want) {
		t.Fatalf("期望 %v，实际 %v", want, r.Sources)
	}

	r.AddSource("hashtag:dance") // 列表态的重复：无变化
	r.AddSource("sound:m1")
	want = []string{"trending", "hashtag:dance", "sound:m1"}
	if !reflect.DeepEqual(r.Sources, want) {
		t.Fatalf("期望 %v，实际 %v", want, r.Sources)
	}
}

func TestSourceTags(t *testing.T) {
	var empty VideoRecord
	if empty.SourceTags() != nil {
		t.Fatalf("无来源应返回 nil")
	}
	single := VideoRecord{Source: "trending"}
	if !reflect.DeepEqual(single.SourceTags(), []string{"trending"}) {
		t.Fatalf("单值形态错误：%v", single.SourceTags())
	}
	multi := VideoRecord{Sources: []string{"a", "b"}}
	if !reflect.DeepEqual(multi.SourceTags(), []string{"a", "b"}) {
		t.Fatalf("列表形态错误：%v", multi.SourceTags())
	}
}

// 输出契约：单来源时 JSON 里只有 "source"，多来源时只有 "sources"。
func TestVideoRecord_SourceJSONShape(t *testing.T) {
	single := VideoRecord{ID: "1", Source: "trending"}
	b, err := json.Marshal(single)
	if err != nil {
		t.Fatalf("序列化失败：%v", err)
	}
	if !strings.Contains(string(b), `"source":"trending"`) || strings.Contains(string(b), `"sources"`) {
		t.Fatalf("单来源形态错误：%s", b)
	}

	multi := VideoRecord{ID: "1", Sources: []string{"trending", "sound:m1"}}
	b, err = json.Marshal(multi)
	if err != nil {
		t.Fatalf("序列化失败：%v", err)
	}
	if strings.Contains(string(b), `"source"`) && !strings.Contains(string(b), `"sources"`) {
		t.Fatalf("多来源形态错误：%s", b)
	}
}

func TestSoundMeta_Emerging(t *testing.T) {
	n := func(v int64) *int64 { return &v }
	cases := []struct {
		name string
		m    SoundMeta
		want bool
	}{
		{"低于阈值", SoundMeta{VideoCount: n(500)}, true},
		{"等于阈值", SoundMeta{VideoCount: n(1000)}, false},
		{"高于阈值", SoundMeta{VideoCount: n(5000)}, false},
		{"计数缺失", SoundMeta{}, false},
		{"计数为零", SoundMeta{VideoCount: n(0)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.Emerging(1000); got != tc.want {
				t.Fatalf("期望 %v，实际 %v", tc.want, got)
			}
		})
	}
}
