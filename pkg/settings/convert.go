package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
)

// expandPath expands ~ to home directory
func expandPath(filePath string) string {
	if strings.HasPrefix(filePath, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(filePath, "~"))
		}
	}
	return filePath
}

// convertToString converts scalar secret values to their string form.
// Composite values are rendered as JSON.
func convertToString(value interface{}) string {
	switch value.(type) {
	case []interface{}, map[string]interface{}:
		if data, err := json.Marshal(value); err == nil {
			return string(data)
		}
	}
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	return fmt.Sprintf("%v", value)
}
