package constants

import "strings"

// NativeFileModelPrefixes lists model families that accept a direct file
// reference in a chat message. Everything else goes through the rendered-image
// path, which is the broadly compatible fallback.
var NativeFileModelPrefixes = []string{
	"gpt-4o",
	"gpt-4.1",
	"gpt-5",
	"o3",
	"o4",
}

// SupportsNativeFile reports whether the given model can take a {type: "file"}
// content part. Unrecognized models default to false.
func SupportsNativeFile(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, p := range NativeFileModelPrefixes {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	return false
}
