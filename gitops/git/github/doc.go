// Package github implements a git.RemoteProvider for GitHub (cloud or
// enterprise). Configure with a Config holding an access token, or build
// from the environment with NewProviderFromEnv, which reads
// GITHUB_API_TOKEN and the optional GITHUB_DEFAULT_URL API base override.
package github
