// Package version resolves the revision stamped into every generated
// document and into the packaged archive name.
package version

import (
	"github.com/go-git/go-git/v5"
)

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X github.com/bookforge/bookforge/internal/version.Version=v1.2.0".
var Version = "unknown"

// Commit resolves the short hash of HEAD in the repository enclosing dir,
// with a "+dirty" suffix when the worktree has local modifications. Outside
// a repository it returns "dev": local builds of the book are still valid.
func Commit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "dev"
	}
	head, err := repo.Head()
	if err != nil {
		return "dev"
	}
	commit := head.Hash().String()[:7]

	wt, err := repo.Worktree()
	if err != nil {
		return commit
	}
	status, err := wt.Status()
	if err != nil {
		return commit
	}
	if !status.IsClean() {
		commit += "+dirty"
	}
	return commit
}
