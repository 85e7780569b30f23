// cmd/tools/worker-generator/generator.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"
	"time"

	"churn-workers/internal/common/validation"
	"churn-workers/pkg/registry"
)

const modulePath = "churn-workers"

type workerData struct {
	registry.Activity

	Module         string
	PackageName    string
	CategoryDir    string
	TimeoutLiteral string
	InputFields    string
	OutputFields   string
}

func newWorkerData(a *registry.Activity) (*workerData, error) {
	if err := validation.ValidateTaskType(a.TaskType); err != nil {
		return nil, err
	}

	timeout := 10 * time.Second
	if a.Timeout != "" {
		d, err := time.ParseDuration(a.Timeout)
		if err != nil {
			return nil, fmt.Errorf("activity %s timeout: %w", a.ID, err)
		}
		timeout = d
	}

	return &workerData{
		Activity:       *a,
		Module:         modulePath,
		PackageName:    strings.ReplaceAll(a.ID, "-", ""),
		CategoryDir:    categoryDir(a.Category),
		TimeoutLiteral: durationLiteral(timeout),
		InputFields:    structFields(a.InputSchema),
		OutputFields:   structFields(a.OutputSchema),
	}, nil
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
	"README.md":       readmeTemplate,
}

// render executes every template; Go sources are gofmt'ed, so a template
// producing invalid Go fails here.
func render(data *workerData) (map[string][]byte, error) {
	funcs := template.FuncMap{"join": strings.Join}

	out := make(map[string][]byte, len(templates))
	for name, src := range templates {
		tmpl, err := template.New(name).Funcs(funcs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, templateView(data)); err != nil {
			return nil, fmt.Errorf("execute %s: %w", name, err)
		}

		b := buf.Bytes()
		if strings.HasSuffix(name, ".go") {
			if b, err = format.Source(b); err != nil {
				return nil, fmt.Errorf("format %s: %w", name, err)
			}
		}
		out[name] = b
	}
	return out, nil
}

// templateView flattens error codes for the templates.
func templateView(d *workerData) map[string]interface{} {
	return map[string]interface{}{
		"ID":                   d.ID,
		"DisplayName":          d.DisplayName,
		"Description":          d.Description,
		"Category":             d.Category,
		"TaskType":             d.TaskType,
		"ImplementationStatus": d.ImplementationStatus,
		"Timeout":              d.Timeout,
		"Retries":              d.Retries,
		"ErrorCodes":           strings.Join(d.ErrorCodes, ", "),
		"Module":               d.Module,
		"PackageName":          d.PackageName,
		"CategoryDir":          d.CategoryDir,
		"TimeoutLiteral":       d.TimeoutLiteral,
		"InputFields":          d.InputFields,
		"OutputFields":         d.OutputFields,
	}
}

// structFields renders the schema properties as Go struct fields, sorted by
// name. Properties outside "required" get omitempty.
func structFields(schema map[string]interface{}) string {
	props, _ := schema["properties"].(map[string]interface{})
	if len(props) == 0 {
		return ""
	}

	required := map[string]bool{}
	if req, ok := schema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	var fields []string
	for _, name := range sortedKeys(props) {
		details, _ := props[name].(map[string]interface{})
		tag := name
		if !required[name] {
			tag += ",omitempty"
		}
		fields = append(fields, fmt.Sprintf("\t%s %s `json:%q`", goFieldName(name), goType(details), tag))
	}
	return strings.Join(fields, "\n")
}

func goType(details map[string]interface{}) string {
	if _, ok := details["enum"]; ok {
		return "string"
	}
	switch details["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		if items, ok := details["items"].(map[string]interface{}); ok {
			return "[]" + goType(items)
		}
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// goFieldName exports a camelCase property, e.g. customerId -> CustomerID.
func goFieldName(prop string) string {
	if prop == "" {
		return prop
	}
	name := strings.ToUpper(prop[:1]) + prop[1:]
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

func durationLiteral(d time.Duration) string {
	switch {
	case d%time.Minute == 0:
		return fmt.Sprintf("%d * time.Minute", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	default:
		return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
	}
}

// categoryDir maps registry categories to directories under internal/workers.
func categoryDir(category string) string {
	switch category {
	case "model", "scoring":
		return "churn"
	case "notification", "email":
		return "communication"
	case "storage", "database":
		return "data-access"
	default:
		return strings.ToLower(category)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
