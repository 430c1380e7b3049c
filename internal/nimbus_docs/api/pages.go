package api

import (
	"embed"
	"fmt"
	"html/template"

	"nimbus-docs/internal/nimbus_docs/model"
	"nimbus-docs/internal/nimbus_docs/session"
	"nimbus-docs/internal/nimbus_docs/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))

type fieldView struct {
	ID          string
	Input       string
	Field       model.Field
	Value       string
	Placeholder string
}

type endpointView struct {
	Index       int
	Descriptor  model.EndpointDescriptor
	MethodClass string
	Fields      []fieldView
	Response    string
	HasResponse bool
}

type page struct {
	Error     string
	Endpoints []endpointView
}

// newPage 将工作区投影为页面数据
func newPage(ws *session.Workspace) page {
	p := page{Error: ws.LoadError}
	for i, d := range ws.Descriptors {
		ev := endpointView{
			Index:       i,
			Descriptor:  d,
			MethodClass: view.MethodClass(d.Method),
		}
		for j, f := range d.Fields {
			v, _ := ws.Value(i, f.Role, f.Name)
			ev.Fields = append(ev.Fields, fieldView{
				ID:          fmt.Sprintf("e%d-%s", i, inputName(j)),
				Input:       inputName(j),
				Field:       f,
				Value:       v,
				Placeholder: view.Placeholder(f.Role),
			})
		}
		ev.Response, ev.HasResponse = ws.Response(i)
		p.Endpoints = append(p.Endpoints, ev)
	}
	return p
}

func inputName(fieldIndex int) string {
	return fmt.Sprintf("f.%d", fieldIndex)
}
