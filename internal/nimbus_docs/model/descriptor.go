package model

import "strings"

// Role 字段在请求中的位置
type Role string

const (
	RolePath  Role = "param" // URL 参数，按查询串追加
	RoleQuery Role = "query"
	RoleBody  Role = "body"
)

// ParseRole 将字段的 requestType 映射为 Role
// "path" 视为 "param" 的别名；未知值原样保留，仅用于展示
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "param", "path":
		return RolePath
	case "query":
		return RoleQuery
	case "body":
		return RoleBody
	}
	return Role(s)
}

// Known 该角色的值是否会被收集
func (r Role) Known() bool {
	return r == RolePath || r == RoleQuery || r == RoleBody
}

type Field struct {
	Name        string `json:"name" bson:"name"`
	Type        string `json:"type" bson:"type"` // display hint only
	Role        Role   `json:"requestType" bson:"requestType"`
	Required    bool   `json:"required" bson:"required"`
	Description string `json:"description" bson:"description"`
}

type EndpointDescriptor struct {
	Endpoint    string  `json:"endpoint" bson:"endpoint"`
	Method      string  `json:"method" bson:"method"`
	RequestType string  `json:"requestType" bson:"requestType"`
	Fields      []Field `json:"requests" bson:"requests"`
}

// FieldByName 按名称查找字段（取第一个）
func (d *EndpointDescriptor) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
