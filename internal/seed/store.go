package seed

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/MicroTrends/internal/infra/fsx"
)

// 四个种子列表的文件名固定：跨运行累积的就是这几个文件。
const (
	AccountsFile     = "big_accounts.txt"
	HashtagsFile     = "seed_hashtags.txt"
	SuggestWordsFile = "seed_suggest_words.txt"
	SoundsFile       = "seed_sounds.txt"
)

// Store 管理种子列表文件：按行读、追加去重写。
//
// 约束：
// - 只追加、永不重写/删行（种子跨运行单调增长）
// - 读取时跳过空行与 '#' 注释行
// - 去重大小写不敏感
// - 文件不存在等于空列表；读失败是结构性错误，向上传播（不降级）
type Store struct {
	Dir string
}

func NewStore(dir string) Store {
	return Store{Dir: filepath.Clean(strings.TrimSpace(dir))}
}

func (s Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// ReadLines 逐行读取一个种子文件（去掉空行/注释行，保持文件顺序）。
func (s Store) ReadLines(name string) ([]string, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取种子文件 %q 失败：%w", s.Path(name), err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取种子文件 %q 失败：%w", s.Path(name), err)
	}
	return out, nil
}

// AppendDedup 把 items 追加到种子文件末尾（大小写不敏感去重），返回实际新增条数。
func (s Store) AppendDedup(name string, items []string) (int, error) {
	existing, err := s.ReadLines(name)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e)] = struct{}{}
	}

	var toAdd []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		key := strings.ToLower(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		toAdd = append(toAdd, it)
	}
	if len(toAdd) == 0 {
		return 0, nil
	}

	if err := fsx.AppendLines(s.Path(name), toAdd); err != nil {
		return 0, fmt.Errorf("追加种子文件 %q 失败：%w", s.Path(name), err)
	}
	return len(toAdd), nil
}

// Accounts 返回规范化后的账号种子：去 @ 前缀、全小写。
func (s Store) Accounts() ([]string, error) {
	lines, err := s.ReadLines(AccountsFile)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		u := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(l, "@")))
		if u != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

// Hashtags 返回规范化后的话题种子：去 # 前缀、全小写。
func (s Store) Hashtags() ([]string, error) {
	lines, err := s.ReadLines(HashtagsFile)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		t := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(l, "#")))
		if t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// Sounds 返回去掉首尾空白的声音 ID 种子。
func (s Store) Sounds() ([]string, error) {
	lines, err := s.ReadLines(SoundsFile)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if id := strings.TrimSpace(l); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
