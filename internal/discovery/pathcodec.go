package discovery

import "strings"

// EncodeProjectPath encodes a working-directory path into the
// directory name the agent stores session files under: separators
// normalized to forward slash, literal '-' percent-encoded as
// "%2D", then '/' replaced with '-', with a leading '-' always
// present. Round-trips exactly with DecodeProjectPath for absolute
// forward-slash paths; a relative path decodes with a leading '/'.
func EncodeProjectPath(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	escaped := strings.ReplaceAll(normalized, "-", "%2D")
	if strings.HasPrefix(escaped, "/") {
		return strings.ReplaceAll(escaped, "/", "-")
	}
	return "-" + strings.ReplaceAll(escaped, "/", "-")
}

// DecodeProjectPath reverses EncodeProjectPath.
func DecodeProjectPath(encoded string) string {
	var path string
	if strings.HasPrefix(encoded, "-") {
		path = "/" + strings.ReplaceAll(encoded[1:], "-", "/")
	} else {
		path = strings.ReplaceAll(encoded, "-", "/")
	}
	return strings.ReplaceAll(path, "%2D", "-")
}
