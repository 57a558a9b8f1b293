package livesync

import (
	"net/url"
	"strings"
)

// DefaultPrefix is the path segment the server mounts its event streams under.
const DefaultPrefix = "sse"

// MarkerFromLocation returns the version marker carried in the location fragment.
func MarkerFromLocation(loc *url.URL) string {
	if loc == nil {
		return ""
	}
	return loc.Fragment
}

// Endpoint derives the stream URL for a page location and version marker.
//
// The path becomes "/<prefix>" + page path + "/" + marker. Scheme, host, user info and query
// are kept; the fragment is dropped.
func Endpoint(loc *url.URL, marker, prefix string) *url.URL {
	u := *loc
	if loc.User != nil {
		user := *loc.User
		u.User = &user
	}

	var b strings.Builder
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		b.WriteString("/")
		b.WriteString(prefix)
	}
	b.WriteString(loc.Path)
	b.WriteString("/")
	b.WriteString(marker)

	u.Path = b.String()
	u.RawPath = ""
	u.Fragment = ""
	u.RawFragment = ""
	return &u
}
