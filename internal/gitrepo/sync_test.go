package gitrepo

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// twoClones returns a bare remote holding one catalog commit and two working
// copies tracking it.
func twoClones(t *testing.T) (remote, a, b string) {
	t.Helper()
	remote = t.TempDir()
	run(t, remote, "git", "init", "--bare")

	a = newRepo(t)
	writeFile(t, filepath.Join(a, "site_structure.toml"), "[[menus]]\nmenu = \"M1\"\n")
	run(t, a, "git", "add", ".")
	run(t, a, "git", "commit", "-m", "base")
	branch := strings.TrimSpace(runOut(t, a, "git", "rev-parse", "--abbrev-ref", "HEAD"))
	run(t, a, "git", "remote", "add", "origin", remote)
	run(t, a, "git", "push", "-u", "origin", branch)

	b = t.TempDir()
	run(t, b, "git", "clone", "-b", branch, remote, ".")
	run(t, b, "git", "config", "user.email", "other@example.com")
	run(t, b, "git", "config", "user.name", "Other")
	run(t, b, "git", "config", "commit.gpgsign", "false")
	return remote, a, b
}

func TestPushCatalog_RebasesOntoRemote(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	remote, a, b := twoClones(t)

	writeFile(t, filepath.Join(b, "images.txt"), "leak.png\n")
	run(t, b, "git", "add", ".")
	run(t, b, "git", "commit", "-m", "images")
	run(t, b, "git", "push")

	catalog := filepath.Join(a, "site_structure.toml")
	writeFile(t, catalog, "[[menus]]\nmenu = \"M9\"\n")
	if _, err := CommitPaths(ctx, a, []string{catalog}, "rename"); err != nil {
		t.Fatalf("CommitPaths: %v", err)
	}
	if err := PushCatalog(ctx, a); err != nil {
		t.Fatalf("PushCatalog: %v", err)
	}

	log := runOut(t, remote, "git", "log", "--format=%s", "--all")
	if got := strings.Fields(log); len(got) != 3 || got[0] != "rename" {
		t.Fatalf("unexpected remote history: %q", log)
	}
}

func TestPushCatalog_ConflictAbortsRebase(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	_, a, b := twoClones(t)

	writeFile(t, filepath.Join(b, "site_structure.toml"), "[[menus]]\nmenu = \"Plumbing\"\n")
	run(t, b, "git", "commit", "-am", "theirs")
	run(t, b, "git", "push")

	catalog := filepath.Join(a, "site_structure.toml")
	writeFile(t, catalog, "[[menus]]\nmenu = \"M9\"\n")
	if _, err := CommitPaths(ctx, a, []string{catalog}, "ours"); err != nil {
		t.Fatalf("CommitPaths: %v", err)
	}

	err := PushCatalog(ctx, a)
	if !errors.Is(err, ErrPushConflict) {
		t.Fatalf("expected ErrPushConflict, got %v", err)
	}
	st, err := GetStatus(ctx, a)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.InProgress || st.Unmerged {
		t.Fatalf("expected the rebase to be aborted: %+v", st)
	}
}
