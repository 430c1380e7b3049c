package session

import (
	"errors"
	"sort"

	"nimbus-docs/internal/nimbus_docs/descriptor"
	"nimbus-docs/internal/nimbus_docs/model"
	"nimbus-docs/internal/nimbus_docs/processor"
)

// ErrIndexOutOfRange 描述下标越界
var ErrIndexOutOfRange = errors.New("descriptor index out of range")

// RunFailedText 页面上展示的调用失败提示
const RunFailedText = "An error occurred while running the API"

// Buckets 单个描述的表单值，按角色分三组
type Buckets struct {
	Path  map[string]string `json:"path,omitempty"`
	Query map[string]string `json:"query,omitempty"`
	Body  map[string]string `json:"body,omitempty"`
}

func (b *Buckets) bucket(role model.Role, create bool) map[string]string {
	var m *map[string]string
	switch role {
	case model.RolePath:
		m = &b.Path
	case model.RoleQuery:
		m = &b.Query
	case model.RoleBody:
		m = &b.Body
	default:
		return nil
	}
	if *m == nil && create {
		*m = map[string]string{}
	}
	return *m
}

// Workspace 一个浏览器会话的全部状态
// 表单值与响应都按描述下标隔离，替换或清空描述列表时一并清空
type Workspace struct {
	Descriptors []model.EndpointDescriptor `json:"descriptors"`
	LoadError   string                     `json:"loadError,omitempty"`
	Values      map[int]*Buckets           `json:"values,omitempty"`
	Responses   map[int]string             `json:"responses,omitempty"`
	// Generation 每次替换或清空描述列表时递增
	Generation uint64 `json:"generation"`
}

// New 创建工作区，可用预加载的描述初始化
func New(seed []model.EndpointDescriptor) *Workspace {
	ws := &Workspace{}
	if len(seed) > 0 {
		ws.Replace(seed)
	}
	return ws
}

// Upload 解析上传内容并替换描述列表
// 失败时描述列表为空，错误信息保存在 LoadError
func (ws *Workspace) Upload(raw []byte) error {
	descs, err := descriptor.Load(raw)
	if err != nil {
		ws.Fail(err)
		return err
	}
	ws.Replace(descs)
	return nil
}

// Replace 整体替换描述列表
func (ws *Workspace) Replace(descs []model.EndpointDescriptor) {
	ws.Descriptors = append([]model.EndpointDescriptor(nil), descs...)
	ws.LoadError = ""
	ws.clearValues()
}

// Fail 记录上传错误（在解析之前或解析时）
func (ws *Workspace) Fail(err error) {
	ws.Descriptors = nil
	ws.LoadError = err.Error()
	ws.clearValues()
}

// Reset 清空描述列表、错误信息、表单值与响应
func (ws *Workspace) Reset() {
	ws.Descriptors = nil
	ws.LoadError = ""
	ws.clearValues()
}

func (ws *Workspace) clearValues() {
	ws.Generation++
	ws.Values = nil
	ws.Responses = nil
}

// Descriptor 按下标取描述
func (ws *Workspace) Descriptor(index int) (*model.EndpointDescriptor, error) {
	if index < 0 || index >= len(ws.Descriptors) {
		return nil, ErrIndexOutOfRange
	}
	return &ws.Descriptors[index], nil
}

// SetValue 保存一个字段值，覆盖旧值；未知角色直接忽略
func (ws *Workspace) SetValue(index int, role model.Role, name, value string) error {
	if _, err := ws.Descriptor(index); err != nil {
		return err
	}
	if !role.Known() {
		return nil
	}
	if ws.Values == nil {
		ws.Values = map[int]*Buckets{}
	}
	b := ws.Values[index]
	if b == nil {
		b = &Buckets{}
		ws.Values[index] = b
	}
	b.bucket(role, true)[name] = value
	return nil
}

// UnsetValue 删除一个字段值
func (ws *Workspace) UnsetValue(index int, role model.Role, name string) error {
	if _, err := ws.Descriptor(index); err != nil {
		return err
	}
	if b := ws.Values[index]; b != nil {
		delete(b.bucket(role, false), name)
	}
	return nil
}

// Value 读取字段当前值
func (ws *Workspace) Value(index int, role model.Role, name string) (string, bool) {
	b := ws.Values[index]
	if b == nil {
		return "", false
	}
	v, ok := b.bucket(role, false)[name]
	return v, ok
}

// SetResponse 保存描述最近一次调用的展示文本
func (ws *Workspace) SetResponse(index int, text string) {
	if ws.Responses == nil {
		ws.Responses = map[int]string{}
	}
	ws.Responses[index] = text
}

// Response 读取描述最近一次调用的展示文本
func (ws *Workspace) Response(index int) (string, bool) {
	v, ok := ws.Responses[index]
	return v, ok
}

// RequestFor 用描述与其表单值构建代理请求
// 参数顺序以字段声明顺序为准，未声明的键按字典序排在后面
func (ws *Workspace) RequestFor(index int) (*processor.Request, error) {
	d, err := ws.Descriptor(index)
	if err != nil {
		return nil, err
	}
	b := ws.Values[index]
	if b == nil {
		b = &Buckets{}
	}

	return &processor.Request{
		Endpoint:    d.Endpoint,
		Method:      d.Method,
		PathValues:  processor.OrderParams(orderedParams(d.Fields, model.RolePath, b.Path)),
		QueryValues: processor.OrderParams(orderedParams(d.Fields, model.RoleQuery, b.Query)),
		Body:        processor.EncodeParams(orderedParams(d.Fields, model.RoleBody, b.Body)),
	}, nil
}

func orderedParams(fields []model.Field, role model.Role, values map[string]string) []processor.Param {
	if len(values) == 0 {
		return nil
	}
	out := make([]processor.Param, 0, len(values))
	used := map[string]bool{}
	for _, f := range fields {
		if f.Role != role || used[f.Name] {
			continue
		}
		if v, ok := values[f.Name]; ok {
			out = append(out, processor.Param{Key: f.Name, Value: v})
			used[f.Name] = true
		}
	}
	var rest []string
	for k := range values {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, processor.Param{Key: k, Value: values[k]})
	}
	return out
}

// Clone 深拷贝，存储层据此避免共享可变状态
func (ws *Workspace) Clone() *Workspace {
	out := &Workspace{LoadError: ws.LoadError, Generation: ws.Generation}
	if ws.Descriptors != nil {
		out.Descriptors = make([]model.EndpointDescriptor, len(ws.Descriptors))
		for i, d := range ws.Descriptors {
			d.Fields = append([]model.Field(nil), d.Fields...)
			out.Descriptors[i] = d
		}
	}
	if ws.Values != nil {
		out.Values = make(map[int]*Buckets, len(ws.Values))
		for i, b := range ws.Values {
			if b == nil {
				continue
			}
			out.Values[i] = &Buckets{
				Path:  cloneMap(b.Path),
				Query: cloneMap(b.Query),
				Body:  cloneMap(b.Body),
			}
		}
	}
	if ws.Responses != nil {
		out.Responses = make(map[int]string, len(ws.Responses))
		for i, r := range ws.Responses {
			out.Responses[i] = r
		}
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
