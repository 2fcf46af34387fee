package docs_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"gocatalog/docs"
)

type document struct {
	BasePath    string                                `json:"basePath"`
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage            `json:"definitions"`
}

func readDoc(t *testing.T) document {
	t.Helper()
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestDoc_DescribesEveryRoute(t *testing.T) {
	doc := readDoc(t)
	assert.Equal(t, "/v1", doc.BasePath)

	routes := map[string][]string{
		"/users/register":                 {"post"},
		"/users/login":                    {"post"},
		"/statuses":                       {"get"},
		"/products":                       {"get", "post"},
		"/products/{id}":                  {"get", "put", "delete"},
		"/products/{id}/price":            {"patch"},
		"/products/{id}/images":           {"post"},
		"/products/{id}/images/{imageId}": {"delete"},
		"/products/{id}/attributes":       {"put"},
		"/products/{id}/options":          {"get", "put"},
		"/products/{id}/variants":         {"get", "post"},
		"/products/{id}/variants/bulk":    {"post"},
		"/products/{id}/variants/default": {"get"},
		"/products/{id}/variants/summary": {"get"},
		"/products/{id}/price-history":    {"get"},
		"/variants/{id}":                  {"get", "put", "delete"},
		"/variants/{id}/stock":            {"patch"},
		"/variants/{id}/price-history":    {"get"},
		"/brands":                         {"get", "post"},
		"/brands/{id}":                    {"get", "put", "delete"},
		"/categories":                     {"get", "post"},
		"/categories/{id}":                {"get", "put", "delete"},
	}
	assert.Len(t, doc.Paths, len(routes))
	for path, methods := range routes {
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "rota %s ausente", path) {
			continue
		}
		for _, m := range methods {
			assert.Contains(t, ops, m, "%s %s", m, path)
		}
	}
}

func TestDoc_PathsAreRelativeToBasePath(t *testing.T) {
	for path := range readDoc(t).Paths {
		assert.False(t, strings.HasPrefix(path, "/v1"), path)
	}
}

func TestDoc_ReferencedDefinitionsExist(t *testing.T) {
	doc := readDoc(t)
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	const prefix = `"$ref": "#/definitions/`
	for rest := raw; ; {
		i := strings.Index(rest, prefix)
		if i < 0 {
			break
		}
		rest = rest[i+len(prefix):]
		name := rest[:strings.IndexByte(rest, '"')]
		assert.Contains(t, doc.Definitions, name)
	}
}
