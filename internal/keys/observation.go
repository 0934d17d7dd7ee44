package keys

import (
	"fmt"
	"geotime/internal/models"
	"strings"
)

// sanitizeKey replaces spaces and slashes with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "-", "/", "-").Replace(s))
}

// Observation returns the canonical S3 key for a decoded observation,
// partitioned by the day it was observed.
func Observation(o models.Observation) string {
	return fmt.Sprintf("decoded/%04d/%02d/%02d/%s.json",
		o.ObservedAt.Year(),
		int(o.ObservedAt.Month()),
		o.ObservedAt.Day(),
		sanitizeKey(o.ID),
	)
}
