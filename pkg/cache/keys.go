package cache

import (
	"fmt"
	"strings"
)

// TokenKey is the key the service token for an application and user is published under.
func TokenKey(applicationID, username string) string {
	return fmt.Sprintf("rkd:token:%s:%s", normalizeKeyPart(applicationID), normalizeKeyPart(username))
}

// normalize a key component so user input cannot introduce extra separators.
func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, ":", "_")
}
