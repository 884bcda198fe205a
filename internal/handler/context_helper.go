package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wset-admin-api/internal/middleware"
	"github.com/noah-isme/wset-admin-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// pageParams reads page and pageSize, leaving invalid values at zero for the service defaults.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.DefaultQuery("page", "1")))
	size, _ := strconv.Atoi(strings.TrimSpace(c.Query("pageSize")))
	return page, size
}
