package logx

import "testing"

func TestNew_LevelsAndFormats(t *testing.T) {
	ok := []struct{ level, format string }{
		{"debug", "console"},
		{"info", "json"},
		{"warn", ""},
		{"error", "console"},
		{"", ""},
	}
	for _, tc := range ok {
		if _, err := New(tc.level, tc.format); err != nil {
			t.Fatalf("New(%q,%q) 不应报错：%v", tc.level, tc.format, err)
		}
	}

	if _, err := New("verbose", "console"); err == nil {
		t.Fatalf("未知级别必须报错")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("未知格式必须报错")
	}
}

func TestNop(t *testing.T) {
	if Nop() == nil {
		t.Fatalf("Nop 不应为 nil")
	}
}
