package descriptor

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"nimbus-docs/internal/nimbus_docs/model"
)

var (
	// ErrInvalidFormat 上传内容不是 JSON 数组
	ErrInvalidFormat = errors.New("Invalid JSON file format.")
	// ErrNotJSONFile 上传的文件类型不是 JSON
	ErrNotJSONFile = errors.New("Please upload a valid JSON file.")
)

// Load 解析上传的描述文件
// 只校验“合法 JSON + 顶层为数组”；单个条目宽松解码，缺失或类型不符的成员取零值
func Load(raw []byte) ([]model.EndpointDescriptor, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidFormat
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return nil, ErrInvalidFormat
	}

	out := make([]model.EndpointDescriptor, 0, len(root.Array()))
	root.ForEach(func(_, item gjson.Result) bool {
		out = append(out, decodeDescriptor(item))
		return true
	})
	return out, nil
}

// LoadFile 从磁盘读取并解析描述文件
func LoadFile(path string) ([]model.EndpointDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor file: %w", err)
	}
	return Load(data)
}

func decodeDescriptor(item gjson.Result) model.EndpointDescriptor {
	d := model.EndpointDescriptor{
		Endpoint:    stringOf(item.Get("endpoint")),
		Method:      stringOf(item.Get("method")),
		RequestType: stringOf(item.Get("requestType")),
	}
	reqs := item.Get("requests")
	if !reqs.IsArray() {
		return d
	}
	reqs.ForEach(func(_, r gjson.Result) bool {
		if !r.IsObject() {
			return true
		}
		d.Fields = append(d.Fields, model.Field{
			Name:        stringOf(r.Get("name")),
			Type:        stringOf(r.Get("type")),
			Role:        model.ParseRole(stringOf(r.Get("requestType"))),
			Required:    r.Get("required").Type == gjson.True,
			Description: stringOf(r.Get("description")),
		})
		return true
	})
	return d
}

// stringOf 只接受字符串类型，其余一律视为缺失
func stringOf(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}
