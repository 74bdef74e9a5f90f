// Package gitop provides the git operations of a
// desired-state tree: InitRepository turns a directory
// into a repository and ConfigureRemote adds the remotes
// declared under the "git" option.
//
// Both operations only undo what they created. An
// existing repository or remote is never removed.
//
// Configuration:
//
//	git: true                    # repository, no remotes
//	git:
//	  remote:
//	    - name: origin
//	      url:
//	        pattern: git@github.com:org/{name}.git
//	      create: true           # create hosted repository
//
// Pattern variables are {name} (base name of the target)
// and {path} (absolute target path).
package gitop
