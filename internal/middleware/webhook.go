package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/response"
)

// WebhookSignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const WebhookSignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 1 << 20

// WebhookSignature verifies storefront webhook deliveries. An empty secret disables the check.
func WebhookSignature(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unable to read request body"))
			c.Abort()
			return
		}
		if len(body) > maxWebhookBody {
			response.Error(c, appErrors.New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "webhook payload too large"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		provided := strings.TrimPrefix(strings.TrimSpace(c.GetHeader(WebhookSignatureHeader)), "sha256=")
		signature, err := hex.DecodeString(provided)
		if err != nil || len(signature) == 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed webhook signature"))
			c.Abort()
			return
		}

		mac := hmac.New(sha256.New, key)
		mac.Write(body)
		if !hmac.Equal(signature, mac.Sum(nil)) {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "webhook signature mismatch"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SignWebhook returns the header value for body under secret.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
