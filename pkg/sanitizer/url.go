package sanitizer

import "strings"

// NormalizeURL forces https and lower-cases the host. The path is kept as is.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	host, path, _ := strings.Cut(url, "/")
	result := "https://" + strings.ToLower(host)
	if path != "" {
		result += "/" + path
	}
	return strings.TrimSuffix(result, "/")
}
