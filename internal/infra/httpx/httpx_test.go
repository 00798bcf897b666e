package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransport_SetsUAAndCookieAndLanguage(t *testing.T) {
	var gotUA, gotLang, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		if c, err := r.Cookie("msToken"); err == nil {
			gotCookie = c.Value
		}
	}))
	defer srv.Close()

	tr := &Transport{
		Base:           &http.Transport{},
		ua:             globalUA,
		MSToken:        "tok-1",
		AcceptLanguage: "en-AU",
	}
	client := &http.Client{Transport: tr}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	resp.Body.Close()

	if gotUA == "" {
		t.Fatalf("UA 应自动填充")
	}
	if !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Fatalf("UA 应来自池子：%q", gotUA)
	}
	if gotLang != "en-AU" {
		t.Fatalf("Accept-Language 期望 en-AU，实际 %q", gotLang)
	}
	if gotCookie != "tok-1" {
		t.Fatalf("msToken cookie 期望 tok-1，实际 %q", gotCookie)
	}
}

func TestTransport_DoesNotOverrideCallerUA(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	tr := &Transport{Base: &http.Transport{}, ua: globalUA}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom-agent/1.0")

	resp, err := (&http.Client{Transport: tr}).Do(req)
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	resp.Body.Close()
	if gotUA != "custom-agent/1.0" {
		t.Fatalf("调用方显式 UA 不应被覆盖：%q", gotUA)
	}
}

func TestTransport_RetriesGET(t *testing.T) {
	// 前两次连接被中断，第三次成功：RetryMax=2 应扛过去。
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			// 劫持连接并直接关闭，制造传输层错误。
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Errorf("测试服务器不支持 hijack")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack 失败：%v", err)
				return
			}
			conn.Close()
			return
		}
	}))
	defer srv.Close()

	tr := &Transport{
		Base:     &http.Transport{DisableKeepAlives: true},
		ua:       globalUA,
		RetryMax: 2,
	}
	resp, err := (&http.Client{Transport: tr}).Get(srv.URL)
	if err != nil {
		t.Fatalf("重试后应成功：%v", err)
	}
	resp.Body.Close()
	if calls != 3 {
		t.Fatalf("期望 3 次尝试，实际 %d", calls)
	}
}

func TestTransport_NilBase(t *testing.T) {
	tr := &Transport{ua: globalUA}
	req, _ := http.NewRequest(http.MethodGet, "http://localhost:0/", nil)
	if _, err := tr.RoundTrip(req); err == nil {
		t.Fatalf("无 base transport 必须报错")
	}
}

func TestNewClient_InvalidProxy(t *testing.T) {
	if _, err := NewClient("://bad", "", ""); err == nil {
		t.Fatalf("非法代理 URL 必须报错")
	}
}

func TestNewClient_ProxyForcesPerRequestConnections(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:8888", "", "")
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if !tr.DisableKeepAlives || !tr.Base.DisableKeepAlives {
		t.Fatalf("代理模式必须禁用 keep-alive")
	}
	if tr.Base.Proxy == nil {
		t.Fatalf("代理未装配")
	}
}

func TestNewClient_NoProxyKeepsKeepAlive(t *testing.T) {
	c, err := NewClient("", "tok", "en-AU")
	if err != nil {
		t.Fatalf("意外错误：%v", err)
	}
	tr := c.Transport.(*Transport)
	if tr.DisableKeepAlives {
		t.Fatalf("无代理时不应禁用 keep-alive")
	}
	if tr.MSToken != "tok" || tr.AcceptLanguage != "en-AU" {
		t.Fatalf("凭证/语言未透传：%+v", tr)
	}
}

func TestUAPool_OnlyKnownValues(t *testing.T) {
	known := make(map[string]struct{}, len(globalUA.uas))
	for _, ua := range globalUA.uas {
		known[ua] = struct{}{}
	}
	for i := 0; i < 50; i++ {
		if _, ok := known[globalUA.random()]; !ok {
			t.Fatalf("UA 超出池范围")
		}
	}
}
