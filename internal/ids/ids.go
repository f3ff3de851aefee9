package ids

import "github.com/segmentio/ksuid"

// New returns a sortable, URL-safe identifier for non-document
// resources such as object-storage keys.
func New() string {
	return ksuid.New().String()
}
