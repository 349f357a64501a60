package keys

import (
	"fmt"
	"strings"
)

// DefaultDevice names the saved-location list when no device id is configured.
const DefaultDevice = "default"

// sanitizeKey replaces spaces and path separators with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "-", "/", "-", "\\", "-").Replace(s)
	return strings.ToLower(s)
}

// SavedLocations returns the storage key holding a device's saved-location list.
func SavedLocations(device string) string {
	device = sanitizeKey(device)
	if device == "" {
		device = DefaultDevice
	}
	return fmt.Sprintf("saved_locations/%s.json", device)
}
