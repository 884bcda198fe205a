package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wset-admin-api/internal/middleware"
	"github.com/noah-isme/wset-admin-api/internal/models"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withStaff(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleAdmin})
}

func decodeEnvelope(rec *httptest.ResponseRecorder) responseEnvelope {
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return envelope
}
