package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Bank Ledger API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="docs"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({ url: '/docs/openapi.yaml', dom_id: '#docs', deepLinking: true });
  </script>
</body>
</html>`

// DocsHandler serves the OpenAPI document and a browser page rendering it.
type DocsHandler struct {
	openAPI []byte
}

// NewDocsHandler wraps the raw OpenAPI YAML. A nil document makes both
// endpoints answer 404.
func NewDocsHandler(openAPI []byte) *DocsHandler {
	return &DocsHandler{openAPI: openAPI}
}

func (h *DocsHandler) OpenAPI(c *gin.Context) {
	if len(h.openAPI) == 0 {
		c.String(http.StatusNotFound, "API document not loaded")
		return
	}
	c.Data(http.StatusOK, "application/yaml", h.openAPI)
}

func (h *DocsHandler) Page(c *gin.Context) {
	if len(h.openAPI) == 0 {
		c.String(http.StatusNotFound, "API document not loaded")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}
