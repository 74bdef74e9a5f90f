// Package gitlab implements git.RemoteProvider for
// GitLab using the official client-go library.
//
// Credentials come from GITLAB_API_TOKEN. Self-managed
// instances are reached through GITLAB_DEFAULT_URL.
package gitlab
