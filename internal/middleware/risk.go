package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const geoRiskKey = contextKey("geoRisk")

// GeoRiskHeader is set by the edge gateway after IP geolocation.
const GeoRiskHeader = "X-Geo-Risk"

// RiskSignalsMiddleware copies gateway risk signals into the request context
// so the audit trail can score them.
func RiskSignalsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch strings.ToLower(strings.TrimSpace(c.GetHeader(GeoRiskHeader))) {
		case "high", "true", "1":
			c.Request = c.Request.WithContext(WithHighRiskGeography(c.Request.Context()))
		}
		c.Next()
	}
}

// WithHighRiskGeography marks ctx as originating from a high-risk location.
func WithHighRiskGeography(ctx context.Context) context.Context {
	return context.WithValue(ctx, geoRiskKey, true)
}

// IsHighRiskGeography reports whether ctx was marked by RiskSignalsMiddleware.
func IsHighRiskGeography(ctx context.Context) bool {
	v, _ := ctx.Value(geoRiskKey).(bool)
	return v
}
