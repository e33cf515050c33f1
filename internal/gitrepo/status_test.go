package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetStatus_NonRepo(t *testing.T) {
	st, err := GetStatus(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.IsRepo {
		t.Fatalf("expected non-repo status")
	}
}

func TestGetStatus_DirtyAndUnmerged(t *testing.T) {
	requireGit(t)

	ctx := context.Background()
	repo := newRepo(t)

	writeFile(t, filepath.Join(repo, "site_structure.toml"), "base\n")
	run(t, repo, "git", "add", ".")
	run(t, repo, "git", "commit", "-m", "base")
	defaultBranch := strings.TrimSpace(runOut(t, repo, "git", "rev-parse", "--abbrev-ref", "HEAD"))
	if defaultBranch == "" {
		t.Fatalf("expected default branch")
	}

	st, err := GetStatus(ctx, repo)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.IsRepo || st.Dirty || st.Unmerged {
		t.Fatalf("unexpected clean status: %+v", st)
	}

	writeFile(t, filepath.Join(repo, "dirty.txt"), "x\n")
	st, err = GetStatus(ctx, repo)
	if err != nil {
		t.Fatalf("GetStatus (dirty): %v", err)
	}
	if !st.Dirty {
		t.Fatalf("expected dirty=true: %+v", st)
	}

	run(t, repo, "git", "checkout", "-b", "feature")
	writeFile(t, filepath.Join(repo, "site_structure.toml"), "feature\n")
	run(t, repo, "git", "add", "site_structure.toml")
	run(t, repo, "git", "commit", "-m", "feature")

	run(t, repo, "git", "checkout", defaultBranch)
	writeFile(t, filepath.Join(repo, "site_structure.toml"), "main\n")
	run(t, repo, "git", "add", "site_structure.toml")
	run(t, repo, "git", "commit", "-m", "main")

	// Leaves the repo conflicted.
	_ = exec.Command("git", "-C", repo, "merge", "feature").Run()

	st, err = GetStatus(ctx, repo)
	if err != nil {
		t.Fatalf("GetStatus (conflict): %v", err)
	}
	if !st.Unmerged || !st.InProgress || st.InProgressKind != "merge" {
		t.Fatalf("expected unmerged merge in progress: %+v", st)
	}
	if _, err := CommitPaths(ctx, repo, []string{filepath.Join(repo, "site_structure.toml")}, "x"); err == nil {
		t.Fatalf("expected commit to refuse a conflicted repo")
	}
}

func TestParseAheadBehind(t *testing.T) {
	a, b, ok := parseAheadBehind("3\t1\n")
	if !ok || a != 3 || b != 1 {
		t.Fatalf("got %d %d %v", a, b, ok)
	}
	if _, _, ok := parseAheadBehind("garbage"); ok {
		t.Fatalf("expected parse failure")
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func newRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	run(t, repo, "git", "init")
	run(t, repo, "git", "config", "user.email", "test@example.com")
	run(t, repo, "git", "config", "user.name", "Test")
	run(t, repo, "git", "config", "commit.gpgsign", "false")
	return repo
}

func run(t *testing.T, dir string, bin string, args ...string) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", bin, args, err, string(out))
	}
}

func runOut(t *testing.T, dir string, bin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", bin, args, err, string(out))
	}
	return string(out)
}

func writeFile(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
