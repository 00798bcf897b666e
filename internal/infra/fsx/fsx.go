package fsx

import (
	"os"
	"path/filepath"
	"strings"
)

// WriteFileAtomicReplace 在 dir 下原子写入 name（临时文件 + rename，允许覆盖）。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - 临时文件做 Sync；目录 Sync 采用 best-effort（平台差异可能导致误报失败）
//
// 快照/种子文件都落在本地盘同目录下，不处理跨盘（EXDEV）。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		// rename 成功后该路径已不存在；失败路径下清掉残留临时文件。
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return err
	}
	syncDirBestEffort(dir)
	return nil
}

// AppendLines 把 lines 逐行追加到 path 末尾（每行补 "\n"）。
// 文件不存在则创建；追加语义是种子列表“只增不删”的物理保证。
func AppendLines(path string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func syncDirBestEffort(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
