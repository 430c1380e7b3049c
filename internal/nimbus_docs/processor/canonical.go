package processor

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type member struct {
	key   string
	value gjson.Result
}

// objectMembers 按浏览器解析后的对象顺序返回成员
// 重复键只保留最后一个值，位置取第一次出现处；数组下标形式的键按数值升序排在最前
func objectMembers(obj gjson.Result) []member {
	var out []member
	pos := map[string]int{}
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, ok := pos[k]; ok {
			out[i].value = value
			return true
		}
		pos[k] = len(out)
		out = append(out, member{key: k, value: value})
		return true
	})

	sort.SliceStable(out, func(i, j int) bool { return keyLess(out[i].key, out[j].key) })
	return out
}

// keyLess 数组下标形式的键按数值升序排在其他键之前，其余保持原顺序
func keyLess(a, b string) bool {
	na, aok := arrayIndex(a)
	nb, bok := arrayIndex(b)
	if aok && bok {
		return na < nb
	}
	return aok && !bok
}

// OrderParams 按对象键的枚举顺序重排参数，返回新切片
func OrderParams(params []Param) []Param {
	if params == nil {
		return nil
	}
	out := append([]Param(nil), params...)
	sort.SliceStable(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

// EncodeParams 将参数编码为字符串值的 JSON 对象，规则与 canonicalJSON 相同
func EncodeParams(params []Param) json.RawMessage {
	dst := []byte{'{'}
	for i, p := range OrderParams(params) {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendString(dst, p.Key)
		dst = append(dst, ':')
		dst = appendString(dst, p.Value)
	}
	return append(dst, '}')
}

// arrayIndex 判断键是否为规范的数组下标（0 到 2^32-2，无前导零）
func arrayIndex(k string) (uint64, bool) {
	if k == "" || len(k) > 10 || (len(k) > 1 && k[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(k, 10, 64)
	if err != nil || n >= math.MaxUint32 {
		return 0, false
	}
	return n, true
}

// canonicalJSON 重新输出 JSON，结果与浏览器 JSON.stringify(JSON.parse(raw)) 一致
func canonicalJSON(v gjson.Result) []byte {
	return appendCanonical(nil, v)
}

func appendCanonical(dst []byte, v gjson.Result) []byte {
	switch v.Type {
	case gjson.True:
		return append(dst, "true"...)
	case gjson.False:
		return append(dst, "false"...)
	case gjson.Number:
		if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
			return append(dst, "null"...)
		}
		return append(dst, formatNumber(v.Num)...)
	case gjson.String:
		return appendString(dst, v.Str)
	case gjson.JSON:
		if v.IsArray() {
			dst = append(dst, '[')
			for i, e := range v.Array() {
				if i > 0 {
					dst = append(dst, ',')
				}
				dst = appendCanonical(dst, e)
			}
			return append(dst, ']')
		}
		dst = append(dst, '{')
		for i, m := range objectMembers(v) {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendString(dst, m.key)
			dst = append(dst, ':')
			dst = appendCanonical(dst, m.value)
		}
		return append(dst, '}')
	}
	return append(dst, "null"...)
}

// formatNumber 与 JavaScript 的 String(number) 一致
// 1e21 及以上或 1e-6 以下使用指数形式，-0 输出 0
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// appendString 按 JSON.stringify 的规则转义：只转义引号、反斜杠和控制字符
func appendString(dst []byte, s string) []byte {
	const hex = "0123456789abcdef"
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hex[c>>4], hex[c&15])
				continue
			}
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
