package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// UserResolver finds the user behind an API key or a proxy supplied
// username.
type UserResolver interface {
	ResolveAPIKey(key string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
}

// AuthOptions configures how requests are authenticated. Without Users only
// JWT bearer tokens are accepted.
type AuthOptions struct {
	Users UserResolver
	// RemoteUserHeader names a header set by a trusted proxy holding the
	// authenticated username.
	RemoteUserHeader string
}

// authenticate sets the user on the context from the Authorization header
// or the remote user header. ok is false with a reason when credentials
// were given but are invalid, or when none were given at all.
func authenticate(c *gin.Context, opts AuthOptions) (ok bool, reason string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if opts.RemoteUserHeader != "" && opts.Users != nil {
			if name := strings.TrimSpace(c.GetHeader(opts.RemoteUserHeader)); name != "" {
				user, err := opts.Users.GetUserByUsername(name)
				if err != nil || !user.IsActive {
					return false, "unknown remote user"
				}
				setUser(c, user.ID, user.Username, user.Role)
				return true, ""
			}
		}
		return false, "authorization header required"
	}

	scheme, credential, found := strings.Cut(authHeader, " ")
	credential = strings.TrimSpace(credential)
	if !found || credential == "" {
		return false, "invalid authorization header format"
	}

	switch scheme {
	case "Bearer":
		claims, err := utils.ParseToken(credential)
		if err != nil {
			return false, "invalid or expired token"
		}
		setUser(c, claims.UserID, claims.Username, claims.Role)
		return true, ""
	case "Token":
		if opts.Users == nil {
			return false, "token authentication is not available"
		}
		user, err := opts.Users.ResolveAPIKey(credential)
		if err != nil {
			return false, "invalid token"
		}
		setUser(c, user.ID, user.Username, user.Role)
		return true, ""
	default:
		return false, "invalid authorization header format"
	}
}

func setUser(c *gin.Context, id uint, username, role string) {
	c.Set(ContextUserID, id)
	c.Set(ContextUsername, username)
	c.Set(ContextRole, role)
}

// AuthRequired rejects requests without valid credentials.
func AuthRequired(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, reason := authenticate(c, opts); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": reason})
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the user when credentials are present. Requests
// without credentials continue anonymously; invalid credentials are still
// rejected.
func OptionalAuth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		hasCredentials := c.GetHeader("Authorization") != "" ||
			(opts.RemoteUserHeader != "" && c.GetHeader(opts.RemoteUserHeader) != "")
		if !hasCredentials {
			c.Next()
			return
		}
		if ok, reason := authenticate(c, opts); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": reason})
			c.Abort()
			return
		}
		c.Next()
	}
}

// WriteRequiresAuth lets anonymous clients read while requiring a user for
// every other method. It runs after OptionalAuth.
func WriteRequiresAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if !IsAuthenticated(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required for write access"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired is a middleware that checks for admin role
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IsAuthenticated reports whether a user was identified for the request.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := c.Get(ContextUsername)
	return ok
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextRole); exists {
		return role.(string)
	}
	return ""
}
