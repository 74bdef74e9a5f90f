package gitop

import (
	"fmt"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/gitops/git"
	"github.com/byte4ever/gitstate/operation"
)

// Register adds the git option to opts and the git
// operations to ops. providers backs "create: true"
// remotes and may be nil.
func Register(
	opts *filestate.OptionRegistry,
	ops *operation.Registry,
	providers *git.ProviderSet,
) error {
	const errCtx = "registering git operations"

	if err := RegisterOptions(opts); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, f := range []operation.Factory{
		InitRepositoryFactory(),
		ConfigureRemoteFactory(providers),
	} {
		if err := ops.Register(f); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}
