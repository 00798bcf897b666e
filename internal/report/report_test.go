package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/John-Robertt/MicroTrends/internal/domain"
)

func TestTopics_CountsAndTieBreak(t *testing.T) {
	rows := []domain.VideoRecord{
		{ID: "1", Hashtags: []string{"dance", "fyp"}, SuggestWords: []string{"raah skeleton"}, Music: domain.Music{ID: "m1"}},
		{ID: "2", Hashtags: []string{"dance"}, Music: domain.Music{ID: "m1"}},
		{ID: "3", Hashtags: []string{"art"}, SuggestWords: []string{"raah skeleton"}, Music: domain.Music{ID: "m2"}},
	}
	got := Topics(rows, 2)

	wantTags := []domain.TagCount{{Tag: "dance", Count: 2}, {Tag: "art", Count: 1}}
	if !reflect.DeepEqual(got.TopHashtags, wantTags) {
		t.Fatalf("话题榜期望 %v，实际 %v", wantTags, got.TopHashtags)
	}
	wantWords := []domain.PhraseCount{{Phrase: "raah skeleton", Count: 2}}
	if !reflect.DeepEqual(got.TopSuggestWords, wantWords) {
		t.Fatalf("建议词榜期望 %v，实际 %v", wantWords, got.TopSuggestWords)
	}
	wantSounds := []domain.SoundCount{{SoundID: "m1", Count: 2}, {SoundID: "m2", Count: 1}}
	if !reflect.DeepEqual(got.TopSounds, wantSounds) {
		t.Fatalf("声音榜期望 %v，实际 %v", wantSounds, got.TopSounds)
	}
}

func TestTopics_EmptyCorpus(t *testing.T) {
	got := Topics(nil, 5)
	if len(got.TopHashtags) != 0 || len(got.TopSuggestWords) != 0 || len(got.TopSounds) != 0 {
		t.Fatalf("空语料三张榜都应为空：%+v", got)
	}
	// 输出契约：空榜序列化为 []，不是 null。
	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("序列化失败：%v", err)
	}
	if strings.Contains(string(b), "null") {
		t.Fatalf("空榜不应输出 null：%s", b)
	}
}

func TestTopPairs_TieBreakLexical(t *testing.T) {
	got := topPairs(map[string]int{"b": 3, "a": 3, "c": 1}, 10)
	want := []pair{{"a", 3}, {"b", 3}, {"c", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("同频应按 key 字典序：%v", got)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("microtrends", "2026-08-28"); got != "microtrends_2026-08-28.json" {
		t.Fatalf("期望 microtrends_2026-08-28.json，实际 %q", got)
	}
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := domain.Snapshot{
		Meta:           domain.Meta{Date: "2026-08-28"},
		SoundMeta:      map[string]domain.SoundMeta{},
		EmergingSounds: []domain.SoundMeta{},
		Items: []domain.VideoRecord{
			{ID: "1", Source: "trending", Score: 2.5},
		},
	}
	snap.Finalize()

	path, err := WriteSnapshot(dir, "microtrends", snap)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	if path != filepath.Join(dir, "microtrends_2026-08-28.json") {
		t.Fatalf("路径错误：%q", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读回失败：%v", err)
	}
	var back domain.Snapshot
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("读回不是合法 JSON：%v", err)
	}
	if back.Meta.Date != "2026-08-28" || len(back.Items) != 1 || back.Items[0].ID != "1" {
		t.Fatalf("读回内容错误：%+v", back)
	}
	if back.Meta.Counts.UniqueTotal != 1 {
		t.Fatalf("unique_total 应由 Finalize 推导为 1，实际 %d", back.Meta.Counts.UniqueTotal)
	}
}
