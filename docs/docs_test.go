package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsRegistered(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Swagger  string                    `json:"swagger"`
		BasePath string                    `json:"basePath"`
		Info     map[string]any            `json:"info"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Equal(t, "2.0", doc.Swagger)
	require.Equal(t, "/api/v1", doc.BasePath)
	require.Equal(t, "Storefront Product API", doc.Info["title"])
	require.Contains(t, doc.Paths, "/catalog")
	require.Contains(t, doc.Paths["/admin/products/{id}"], "delete")
	require.Contains(t, doc.Paths, "/admin/moderation/bulk/approve")
}
