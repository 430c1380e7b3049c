package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BuildURL 将各组参数依次拼接为查询串追加到 endpoint
// 不做 {name} 路径模板替换，path 参数同样以查询串形式追加
// endpoint 已含查询串时用 & 合并，而不是再追加一个 ?
func BuildURL(endpoint string, groups ...[]Param) string {
	var pairs []string
	for _, g := range groups {
		for _, p := range g {
			pairs = append(pairs, p.Key+"="+encodeURIComponent(p.Value))
		}
	}
	if len(pairs) == 0 {
		return endpoint
	}
	query := strings.Join(pairs, "&")

	idx := strings.IndexByte(endpoint, '?')
	switch {
	case idx < 0:
		return endpoint + "?" + query
	case strings.HasSuffix(endpoint, "?"), strings.HasSuffix(endpoint, "&"):
		return endpoint + query
	default:
		return endpoint + "&" + query
	}
}

// hasBody 只有 POST / PUT 携带请求体
func hasBody(method string) bool {
	m := strings.ToLower(method)
	return m == "post" || m == "put"
}

// buildHTTPRequest 构建出站请求，返回请求与最终 URL
func buildHTTPRequest(ctx context.Context, r *Request) (*http.Request, string, error) {
	u := BuildURL(r.Endpoint, r.PathValues, r.QueryValues)

	var body io.Reader
	if hasBody(r.Method) {
		payload := []byte(r.Body)
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(r.Method), u, body)
	if err != nil {
		return nil, u, fmt.Errorf("create request: %w", err)
	}
	// 无论是否有 body 都带上
	req.Header.Set("Content-Type", "application/json")
	return req, u, nil
}

// encodeURIComponent 与浏览器的 encodeURIComponent 一致：
// 保留 A-Z a-z 0-9 - _ . ! ~ * ' ( )，其余字节按 %XX 编码（空格为 %20）
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
