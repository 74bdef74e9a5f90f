package git

import (
	"regexp"
	"strings"
)

// hostPrefix matches the scheme and host of a web URL
// (https://host[:port]/) or the user and host of an SSH
// shorthand (user@host:).
var hostPrefix = regexp.MustCompile(
	`^(?:[a-zA-Z][a-zA-Z0-9+.-]*://[^/]+/|[^@/\s]+@[^:/\s]+:)`,
)

// ParseRepositoryURL strips the protocol and host from
// url along with a trailing ".git", then splits the
// remaining path. The last segment is the name and the
// one before it the namespace.
//
//	https://github.com/ns/repo.git -> {repo, ns}
//	git@github.com:ns/repo.git     -> {repo, ns}
//	repo                           -> {repo, ""}
func ParseRepositoryURL(url string) RepositoryInfo {
	path := hostPrefix.ReplaceAllString(
		strings.TrimSpace(url), "",
	)
	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		return RepositoryInfo{
			Name:      parts[len(parts)-1],
			Namespace: parts[len(parts)-2],
		}
	}

	return RepositoryInfo{Name: parts[0]}
}
