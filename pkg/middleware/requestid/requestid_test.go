package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string, string) {
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(headerKey, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromGin, fromCtx
}

func TestMiddlewareKeepsInboundID(t *testing.T) {
	w, fromGin, fromCtx := serve("abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(headerKey))
	assert.Equal(t, "abc-123", fromGin)
	assert.Equal(t, "abc-123", fromCtx)
}

func TestMiddlewareReplacesMissingOrMalformedID(t *testing.T) {
	for _, header := range []string{"", "has space", strings.Repeat("x", 200)} {
		w, fromGin, _ := serve(header)
		assert.Len(t, fromGin, 36)
		assert.Equal(t, fromGin, w.Header().Get(headerKey))
	}
}
