package processor

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// ErrMalformedRequest 代理请求体不可解析
var ErrMalformedRequest = errors.New("malformed proxy request")

// Param 一个查询串键值，保持插入顺序
type Param struct {
	Key   string
	Value string
}

// Request 一次代理调用的输入
type Request struct {
	Endpoint    string
	Method      string
	PathValues  []Param
	QueryValues []Param
	Body        json.RawMessage // nil 时发送 {}
}

// DecodeRequest 解析 /api/runApi 的请求体
// {endpoint, method, paramData?, queryData?, bodyData?}
func DecodeRequest(raw []byte) (*Request, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrMalformedRequest
	}
	root := gjson.ParseBytes(raw)
	endpoint, method := root.Get("endpoint"), root.Get("method")
	if endpoint.Type != gjson.String || method.Type != gjson.String {
		return nil, ErrMalformedRequest
	}

	// 显式的 null 无法展开为键值对
	paramData, queryData := root.Get("paramData"), root.Get("queryData")
	if paramData.Type == gjson.Null && paramData.Exists() ||
		queryData.Type == gjson.Null && queryData.Exists() {
		return nil, ErrMalformedRequest
	}

	req := &Request{
		Endpoint:    endpoint.Str,
		Method:      method.Str,
		PathValues:  ParamsFromJSON(paramData),
		QueryValues: ParamsFromJSON(queryData),
	}
	if body := root.Get("bodyData"); body.Exists() {
		req.Body = json.RawMessage(canonicalJSON(body))
	}
	return req, nil
}

// ParamsFromJSON 按对象顺序取出原始类型值（字符串/数字/布尔）
// 重复键取最后一个值；数组按下标展开；嵌套数组、对象、null 被静默丢弃
// 其他非对象输入返回 nil
func ParamsFromJSON(obj gjson.Result) []Param {
	var out []Param
	switch {
	case obj.IsObject():
		for _, m := range objectMembers(obj) {
			if s, ok := primitiveString(m.value); ok {
				out = append(out, Param{Key: m.key, Value: s})
			}
		}
	case obj.IsArray():
		for i, e := range obj.Array() {
			if s, ok := primitiveString(e); ok {
				out = append(out, Param{Key: strconv.Itoa(i), Value: s})
			}
		}
	}
	return out
}

func primitiveString(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		switch {
		case math.IsInf(v.Num, 1):
			return "Infinity", true
		case math.IsInf(v.Num, -1):
			return "-Infinity", true
		}
		return formatNumber(v.Num), true
	case gjson.True:
		return "true", true
	case gjson.False:
		return "false", true
	}
	return "", false
}
