package view

import (
	"strings"

	"github.com/tidwall/pretty"

	"nimbus-docs/internal/nimbus_docs/model"
)

// 与 JSON.stringify(v, null, 2) 相同：两空格缩进，数组不折叠为单行
var displayOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// FormatResponse 格式化响应体用于展示
func FormatResponse(body []byte) string {
	return strings.TrimRight(string(pretty.PrettyOptions(body, displayOptions)), "\n")
}

// MethodClass 按 HTTP 方法返回样式类名
func MethodClass(method string) string {
	switch m := strings.ToLower(method); m {
	case "get", "post", "put", "delete":
		return "method-" + m
	}
	return "method-other"
}

// Placeholder 输入框占位文本
func Placeholder(role model.Role) string {
	switch role {
	case model.RolePath:
		return "URL Parameter"
	case model.RoleQuery:
		return "Query Parameter"
	}
	return "Body Data"
}
