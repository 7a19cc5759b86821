// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the portal service.
//
// # Request Flow
//
//	Request
//	   │
//	   ▼
//	RequestID ── assigns or propagates X-Request-ID, stores it in the context
//	   │
//	   ▼
//	Recovery ─── converts a handler panic into a 500 INTERNAL_ERROR body
//	   │
//	   ▼
//	Handler (retrieves the id via GetRequestID)
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/campus-kb/portal/services/orchestrator/datatypes"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =============================================================================
// Context Keys
// =============================================================================

// HeaderRequestID is read from inbound requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "portal_request_id"

// validRequestID accepts caller-supplied ids that are safe to log verbatim.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// =============================================================================
// Context Helpers
// =============================================================================

// GetRequestID returns the id assigned by RequestID, or "" outside it.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// =============================================================================
// Middleware
// =============================================================================

// RequestID assigns every request an id.
//
// # Description
//
// A well-formed X-Request-ID header from the caller is kept. Otherwise a new
// UUID v4 is generated. The id is stored in the gin context and set on the
// response header before the handler runs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Recovery turns a panic into a 500 with the standard error body.
//
// # Description
//
// The panic value is logged with the request id and route; the client only
// sees a generic message. If the handler already wrote a response the
// connection is left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			slog.Error("Recovered panic in handler",
				slog.String("request_id", GetRequestID(c)),
				slog.String("route", c.FullPath()),
				slog.String("panic", fmt.Sprint(rec)))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				datatypes.NewInternalError("an internal error occurred"))
		}()
		c.Next()
	}
}
