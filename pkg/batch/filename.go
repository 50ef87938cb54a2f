package batch

import (
	"mime"
	"net/http"
	"strings"
)

// FilenameFromDisposition extracts the suggested filename from a response's
// content-disposition header. Servers vary header casing and parameter
// quoting, so the lookup falls back from the canonical key to a
// case-insensitive scan to a plain substring parse before giving up and
// returning the fallback name.
func FilenameFromDisposition(header http.Header, fallback string) string {
	raw := header.Get("Content-Disposition")
	if raw == "" {
		for key, vs := range header {
			if strings.EqualFold(key, "Content-Disposition") && len(vs) > 0 {
				raw = vs[0]
				break
			}
		}
	}
	if raw == "" {
		return fallback
	}

	if _, params, err := mime.ParseMediaType(raw); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}

	// Some backends emit unquoted filenames that ParseMediaType rejects.
	const marker = "filename="
	if idx := strings.Index(strings.ToLower(raw), marker); idx >= 0 {
		name := raw[idx+len(marker):]
		if semi := strings.IndexByte(name, ';'); semi >= 0 {
			name = name[:semi]
		}
		name = strings.Trim(strings.TrimSpace(name), `"`)
		if name != "" {
			return name
		}
	}

	return fallback
}
