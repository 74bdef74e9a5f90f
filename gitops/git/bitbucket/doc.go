// Package bitbucket implements git.RemoteProvider for
// Bitbucket Server (Data Center) over its 1.0 REST API.
//
// Requests use HTTP basic auth with BITBUCKET_API_USER
// and BITBUCKET_API_TOKEN against BITBUCKET_DEFAULT_URL.
package bitbucket
