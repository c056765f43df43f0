// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the memory service.
//
// # Description
//
// Auth guards the /api group with a static bearer token. When no token
// is configured the middleware is a pass-through, which keeps local
// single-user deployments zero-config.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Auth returns a middleware enforcing "Authorization: Bearer <apiKey>".
//
// # Inputs
//
//   - apiKey: The expected token. Empty disables authentication.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware that aborts with 401 on a missing or
//     mismatched token.
func Auth(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "missing bearer token"})
			return
		}

		// Constant-time compare so the token cannot be probed
		// byte by byte.
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "invalid bearer token"})
			return
		}
		c.Next()
	}
}
