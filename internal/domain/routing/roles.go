package routing

import (
	"encoding/json"
	"strings"
)

// ExtractRoles parses a role list expressed either as a JSON array
// (`["Admin","Sales"]`) or as a comma-separated string (`Admin, Sales`).
// Values are trimmed and lower-cased; empty entries are discarded. A JSON
// value that fails to parse yields an empty set rather than an error, since
// an unparseable header carries no usable authorization evidence.
func ExtractRoles(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil
		}
		return NormalizeRoles(parsed)
	}

	return NormalizeRoles(strings.Split(raw, ","))
}
