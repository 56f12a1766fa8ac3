package docs

import (
	"encoding/json"
	"go/format"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Swagger  string                     `json:"swagger"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths, "/invoices/{id}/pdf")
	assert.Contains(t, doc.Paths, "/portal/login")
}

// docs.go is edited by hand between swag runs; keep it gofmt clean.
func TestDocsSourceIsFormatted(t *testing.T) {
	src, err := os.ReadFile("docs.go")
	require.NoError(t, err)
	formatted, err := format.Source(src)
	require.NoError(t, err)
	assert.Equal(t, string(formatted), string(src))
}
