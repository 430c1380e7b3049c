package descriptor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"nimbus-docs/internal/nimbus_docs/model"
)

// OpenAPIFile 将 OpenAPI 3 文档（JSON 或 YAML）转换为描述列表
// baseURL 为空时取文档中的第一个 server
func OpenAPIFile(path, baseURL string) ([]model.EndpointDescriptor, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI document: %w", err)
	}
	return FromOpenAPI(doc, baseURL), nil
}

// OpenAPIData 同 OpenAPIFile，输入为内存中的文档
func OpenAPIData(data []byte, baseURL string) ([]model.EndpointDescriptor, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI document: %w", err)
	}
	return FromOpenAPI(doc, baseURL), nil
}

// FromOpenAPI 路径按字典序、方法按固定顺序输出，保证结果稳定
func FromOpenAPI(doc *openapi3.T, baseURL string) []model.EndpointDescriptor {
	if baseURL == "" && len(doc.Servers) > 0 {
		baseURL = doc.Servers[0].URL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if doc.Paths == nil {
		return nil
	}
	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for p := range pathMap {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []model.EndpointDescriptor
	for _, p := range paths {
		item := pathMap[p]
		if item == nil {
			continue
		}
		ops := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"POST", item.Post},
			{"PUT", item.Put},
			{"PATCH", item.Patch},
			{"DELETE", item.Delete},
		}
		for _, o := range ops {
			if o.op == nil {
				continue
			}
			out = append(out, convertOperation(baseURL+p, o.method, o.op, item.Parameters))
		}
	}
	return out
}

func convertOperation(endpoint, method string, op *openapi3.Operation, shared openapi3.Parameters) model.EndpointDescriptor {
	d := model.EndpointDescriptor{
		Endpoint:    endpoint,
		Method:      method,
		RequestType: "json",
	}

	// 操作级参数覆盖路径级同名参数
	seen := map[string]bool{}
	params := append(append(openapi3.Parameters{}, op.Parameters...), shared...)
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		var role model.Role
		switch p.In {
		case openapi3.ParameterInPath:
			role = model.RolePath
		case openapi3.ParameterInQuery:
			role = model.RoleQuery
		default:
			continue // header / cookie 不支持
		}
		key := p.In + ":" + p.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		d.Fields = append(d.Fields, model.Field{
			Name:        p.Name,
			Type:        schemaType(p.Schema),
			Role:        role,
			Required:    p.Required,
			Description: p.Description,
		})
	}

	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return d
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return d
	}
	schema := media.Schema.Value
	required := map[string]bool{}
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop := schema.Properties[name]
		desc := ""
		if prop != nil && prop.Value != nil {
			desc = prop.Value.Description
		}
		d.Fields = append(d.Fields, model.Field{
			Name:        name,
			Type:        schemaType(prop),
			Role:        model.RoleBody,
			Required:    required[name],
			Description: desc,
		})
	}
	return d
}

func schemaType(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil || ref.Value.Type == nil {
		return "string"
	}
	types := ref.Value.Type.Slice()
	if len(types) == 0 {
		return "string"
	}
	return types[0]
}
