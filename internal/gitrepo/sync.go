package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrPushConflict means the remote moved and the local catalog commits do not
// rebase onto it cleanly. The rebase has been aborted, so later saves can
// still be committed.
var ErrPushConflict = errors.New("catalog push conflicts with remote changes")

// PushCatalog pushes the current branch. When the remote is ahead it rebases
// the local commits onto it once and pushes again.
func PushCatalog(ctx context.Context, dir string) error {
	_, err := runGit(ctx, dir, "push")
	if err == nil || !remoteAhead(err) {
		return err
	}
	if _, rerr := runGit(ctx, dir, "pull", "--rebase", "--autostash"); rerr != nil {
		// Fails harmlessly when the pull stopped before rebasing.
		_, _ = runGit(ctx, dir, "rebase", "--abort")
		return fmt.Errorf("%w: %v", ErrPushConflict, rerr)
	}
	_, err = runGit(ctx, dir, "push")
	return err
}

func remoteAhead(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "non-fast-forward") ||
		strings.Contains(msg, "fetch first") ||
		strings.Contains(msg, "updates were rejected")
}
