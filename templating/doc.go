// Package templating expands single-brace pattern strings such as
// "git@github.com:org/{name}.git" with valyala/fasttemplate. Unknown
// variables are reported as ErrUnknownVariable instead of being left in
// place.
package templating
