package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/middleware"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

// parseID reads a numeric path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.NewBadRequest("invalid " + name)
	}
	return uint(id), nil
}

// lookupParam returns a path parameter with any trailing slash removed.
// Viewset style routes accept either an id or a natural key.
func lookupParam(c *gin.Context, name string) string {
	return strings.Trim(c.Param(name), "/")
}

// actorFrom returns the authenticated user as the author of a change, or
// nil for anonymous requests.
func actorFrom(c *gin.Context) *services.Actor {
	if !middleware.IsAuthenticated(c) {
		return nil
	}
	actor := &services.Actor{Username: middleware.GetUsername(c)}
	if id := middleware.GetUserID(c); id > 0 {
		actor.UserID = &id
	}
	return actor
}

// bindError converts a binding failure into a validation error.
func bindError(err error) error {
	if errors.Is(err, io.EOF) {
		return response.NewBadRequest("request body is required")
	}
	return response.NewBadRequest(err.Error())
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, response.NewBadRequest("unable to read request body")
	}
	if len(body) == 0 {
		return nil, response.NewBadRequest("request body is required")
	}
	return body, nil
}

// fail logs unexpected errors and writes the error response.
func fail(c *gin.Context, err error) {
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	response.Error(c, err)
}

// failValidation is fail for REST create and update, where 400s keep the
// non_field_errors body.
func failValidation(c *gin.Context, err error) {
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	response.Validation(c, err)
}
