package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateAPIKey returns a random 32 character hex key used for
// "Authorization: Token <key>" access.
func GenerateAPIKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
