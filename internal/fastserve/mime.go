package fastserve

import (
	"mime"
	"path/filepath"
	"strings"
)

// contentType guesses the Content-Type from the file extension. APKs get
// their vendor type explicitly: Android refuses to install a package served
// as octet-stream, and the platform mime table rarely knows the extension.
func contentType(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".apk") {
		return "application/vnd.android.package-archive"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
