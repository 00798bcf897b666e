package domain

import (
	"reflect"
	"testing"
)

func TestFinalize_ItemOrdering(t *testing.T) {
	s := Snapshot{Items: []VideoRecord{
		{ID: "b", Score: 1.0},
		{ID: "a", Score: 1.0},
		{ID: "c", Score: 9.0},
	}}
	s.Finalize()

	ids := []string{s.Items[0].ID, s.Items[1].ID, s.Items[2].ID}
	// score 降序；同分 id 字典序。
	if !reflect.DeepEqual(ids, []string{"c", "a", "b"}) {
		t.Fatalf("期望 [c a b]，实际 %v", ids)
	}
	if s.Meta.Counts.UniqueTotal != 3 {
		t.Fatalf("unique_total 期望 3，实际 %d", s.Meta.Counts.UniqueTotal)
	}
}

func TestFinalize_EmergingSoundsSorted(t *testing.T) {
	s := Snapshot{EmergingSounds: []SoundMeta{{ID: "m9"}, {ID: "m1"}, {ID: "m5"}}}
	s.Finalize()
	ids := []string{s.EmergingSounds[0].ID, s.EmergingSounds[1].ID, s.EmergingSounds[2].ID}
	if !reflect.DeepEqual(ids, []string{"m1", "m5", "m9"}) {
		t.Fatalf("期望按 id 字典序，实际 %v", ids)
	}
}
