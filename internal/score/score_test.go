package score

import (
	"testing"

	"github.com/John-Robertt/MicroTrends/internal/domain"
)

func TestApply_RareHashtagBonusCapped(t *testing.T) {
	// 八个只出现一次的话题：8*0.5=4.0，必须压到上限 3.0。
	r := domain.VideoRecord{
		ID:       "1",
		Hashtags: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
	}
	rows := []domain.VideoRecord{r}
	Apply(rows, nil)
	if rows[0].Score != 3.0 {
		t.Fatalf("期望稀有话题加分封顶 3.0，实际 %v", rows[0].Score)
	}
}

func TestApply_CommonHashtagNoBonus(t *testing.T) {
	// 同一话题出现 3 次（> 稀有阈值 2）：不加分。
	rows := []domain.VideoRecord{
		{ID: "1", Hashtags: []string{"viral"}},
		{ID: "2", Hashtags: []string{"viral"}},
		{ID: "3", Hashtags: []string{"viral"}},
	}
	Apply(rows, nil)
	for _, r := range rows {
		if r.Score != 0 {
			t.Fatalf("常见话题不应加分：id=%s score=%v", r.ID, r.Score)
		}
	}
}

func TestApply_RareSoundBonus(t *testing.T) {
	rows := []domain.VideoRecord{
		{ID: "1", Music: domain.Music{ID: "m1"}},
		{ID: "2", Music: domain.Music{ID: "m2"}},
		{ID: "3", Music: domain.Music{ID: "m2"}},
		{ID: "4", Music: domain.Music{ID: "m2"}},
	}
	Apply(rows, nil)
	if rows[0].Score != 1.0 {
		t.Fatalf("稀有声音应加 1.0，实际 %v", rows[0].Score)
	}
	if rows[1].Score != 0 {
		t.Fatalf("出现 3 次的声音不应加分，实际 %v", rows[1].Score)
	}
}

func TestApply_PrivilegedAccountBonus(t *testing.T) {
	rows := []domain.VideoRecord{
		{ID: "1", Author: domain.Author{UniqueID: "BigStar"}},
		{ID: "2", Author: domain.Author{UniqueID: "nobody"}},
	}
	privileged := map[string]struct{}{"bigstar": {}}
	Apply(rows, privileged)
	if rows[0].Score != 1.0 {
		t.Fatalf("重点账号应加 1.0（handle 大小写不敏感），实际 %v", rows[0].Score)
	}
	if rows[1].Score != 0 {
		t.Fatalf("普通账号不应加分，实际 %v", rows[1].Score)
	}
}

func TestApply_BaseCarriedAndRounded(t *testing.T) {
	rows := []domain.VideoRecord{{ID: "1", ScoreBase: 0.123456}}
	Apply(rows, nil)
	if rows[0].Score != 0.1235 {
		t.Fatalf("期望四舍五入到 4 位小数 0.1235，实际 %v", rows[0].Score)
	}
}

func TestRound4(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.00004, 1.0},
		{1.00006, 1.0001},
		{2.5, 2.5},
		{0, 0},
	}
	for _, tc := range cases {
		if got := round4(tc.in); got != tc.want {
			t.Fatalf("round4(%v)：期望 %v，实际 %v", tc.in, tc.want, got)
		}
	}
}
