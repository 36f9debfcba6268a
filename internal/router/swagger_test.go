package router

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	_ "logiflow/api/swagger"
	"logiflow/internal/reconciliation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type swaggerDoc struct {
	Paths map[string]map[string]struct {
		Parameters []struct {
			Name string   `json:"name"`
			In   string   `json:"in"`
			Enum []string `json:"enum"`
		} `json:"parameters"`
	} `json:"paths"`
}

func readSwagger(t *testing.T) swaggerDoc {
	t.Helper()
	raw, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	var doc swaggerDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

var pathParam = regexp.MustCompile(`:(\w+)`)

func TestSwagger_DocumentsEveryAPIRoute(t *testing.T) {
	s := newTestServer(t)
	doc := readSwagger(t)

	for _, route := range s.engine.Routes() {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		path := pathParam.ReplaceAllString(route.Path, "{$1}")
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "undocumented path %s", path) {
			continue
		}
		_, ok = ops[strings.ToLower(route.Method)]
		assert.True(t, ok, "undocumented operation %s %s", route.Method, path)
	}
}

func TestSwagger_ReconciliationStatusFilterMatchesEngine(t *testing.T) {
	doc := readSwagger(t)

	for _, path := range []string{"/api/reconciliation", "/api/reconciliation/export"} {
		op, ok := doc.Paths[path][strings.ToLower(http.MethodGet)]
		require.True(t, ok, path)

		var enum []string
		for _, p := range op.Parameters {
			if p.Name == "status" && p.In == "query" {
				enum = p.Enum
			}
		}
		assert.ElementsMatch(t, []string{
			reconciliation.StatusAwaiting,
			reconciliation.StatusPartialInvoice,
			reconciliation.StatusReadyToValidate,
			reconciliation.StatusValidated,
		}, enum, path)
		for _, status := range enum {
			assert.True(t, reconciliation.ValidStatus(status), status)
		}
	}
}
