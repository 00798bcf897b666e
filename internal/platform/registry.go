package platform

import (
	"fmt"
	"strings"
)

// Registry 是 Client 的只读注册表（按 name 索引）。
// 用 map 做 O(1) 查找；实现数量极小，保持简单即可。
type Registry struct {
	byName map[string]Client
}

func NewRegistry(clients ...Client) (Registry, error) {
	byName := make(map[string]Client, len(clients))
	for _, c := range clients {
		if c == nil {
			return Registry{}, fmt.Errorf("client 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(c.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("client.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 client：%q", name)
		}
		byName[name] = c
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Client, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	c, ok := r.byName[name]
	return c, ok
}
