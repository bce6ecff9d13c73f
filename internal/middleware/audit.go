package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
)

const auditBodyLimit = 2000

var sensitiveKeys = map[string]bool{
	"password":     true,
	"old_password": true,
	"new_password": true,
	"api_key":      true,
	"secret":       true,
	"token":        true,
	"access_token": true,
}

// AuditLog records write requests (POST/PUT/PATCH/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			body = maskSensitiveFields(raw)
			if len(body) > auditBodyLimit {
				body = body[:auditBodyLimit] + "...[truncated]"
			}
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		var uid *uint
		if id := GetUserID(c); id > 0 {
			uid = &id
		}

		services.LogInfo(module, action, formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status),
			uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   body,
				"audit":  true,
			})
	}
}

// parseRouteInfo maps a route pattern to a module and action,
// e.g. "/api/v2/key_values/:id" + "PUT" gives ("key_values", "update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/")
	for _, prefix := range []string{"api/", "tokenapi/"} {
		path = strings.TrimPrefix(path, prefix)
	}
	path = strings.TrimPrefix(path, "v2/")

	module, _, _ = strings.Cut(path, "/")
	module = strings.ReplaceAll(module, "-", "_")
	if module == "" || strings.HasPrefix(module, ":") {
		module = "unknown"
	}

	switch method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return module, action
}

func formatAuditMessage(username, method, path string, status int) string {
	if username == "" {
		username = "anonymous"
	}
	result := "ok"
	if status < 200 || status >= 300 {
		result = "failed"
	}
	return fmt.Sprintf("[audit] %s %s %s: %s (%d)", username, method, path, result, status)
}

// maskSensitiveFields hides credential values in JSON and form bodies.
// Bodies that are neither are returned unchanged.
func maskSensitiveFields(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for k := range obj {
			if sensitiveKeys[strings.ToLower(k)] {
				obj[k] = "***"
			}
		}
		masked, err := json.Marshal(obj)
		if err == nil {
			return string(masked)
		}
	}

	body := string(raw)
	if strings.Contains(body, "=") && !strings.ContainsAny(body, "{}") {
		pairs := strings.Split(body, "&")
		for i, pair := range pairs {
			k, _, found := strings.Cut(pair, "=")
			if found && sensitiveKeys[strings.ToLower(k)] {
				pairs[i] = k + "=***"
			}
		}
		return strings.Join(pairs, "&")
	}
	return body
}
