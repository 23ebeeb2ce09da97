package catalog

import (
	"fmt"
	"strings"

	"nas-media-catalog/internal/database"
)

// ValidationError reports a playlist request that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a playlist request and returns it with the name and
// description trimmed. File paths are kept verbatim and in order; repeated
// paths are allowed.
func Validate(in database.PlaylistInput) (database.PlaylistInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(in.FilePaths) == 0 {
		return in, &ValidationError{Field: "filePaths", Message: "at least one file path is required"}
	}
	for i, p := range in.FilePaths {
		if strings.TrimSpace(p) == "" {
			return in, &ValidationError{Field: "filePaths", Message: fmt.Sprintf("file path %d is empty", i)}
		}
	}
	return in, nil
}
