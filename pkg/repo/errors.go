package repo

import "errors"

var (
	ErrNotARepository     = errors.New("not a flux repository")
	ErrAlreadyInitialized = errors.New("repository already initialized")
	ErrConfigIncomplete   = errors.New("user_name and user_email must be set")
	ErrUnknownConfigKey   = errors.New("unknown config key")
	ErrNothingToCommit    = errors.New("nothing to commit")
	ErrBranchExists       = errors.New("branch already exists")
	ErrBranchNotFound     = errors.New("branch does not exist")
	ErrInvalidBranchName  = errors.New("invalid branch name")
	ErrCurrentBranch      = errors.New("cannot delete the current branch")
	ErrUncommittedChanges = errors.New("the current branch has uncommitted changes")
	ErrNonUTF8Path        = errors.New("path is not valid UTF-8")
	ErrDetachedHead       = errors.New("detached HEAD not supported")
	ErrOutsideWorkTree    = errors.New("path is outside the work tree")
	ErrMissingObject      = errors.New("staged object missing from store")
	ErrBadSignature       = errors.New("bad commit signature")
)
