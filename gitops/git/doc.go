// Package git provides the VCS primitives used to converge a directory's
// Git state and a strategy interface for talking to repository hosting
// platforms.
//
// Repo wraps a local repository opened through go-git with create-once
// remote management. RemoteProvider abstracts repository creation and
// existence checks on a hosting service; implementations exist for GitHub,
// GitLab, and Bitbucket Server in sub-packages. ProviderSet selects the
// implementation owning a remote URL and builds it from environment
// credentials on first use.
package git
