package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"handyman/internal/model"
)

// CommitPaths stages the given files and commits them. Files outside the
// repository or missing on disk are skipped. Returns committed=false when
// dir is not a repository or nothing changed.
func CommitPaths(ctx context.Context, dir string, paths []string, message string) (committed bool, err error) {
	st, err := GetStatus(ctx, dir)
	if err != nil {
		return false, err
	}
	if !st.IsRepo {
		return false, nil
	}
	if st.Unmerged || st.InProgress {
		return false, errors.New("git repo has an in-progress merge/rebase; resolve first")
	}

	rels, err := repoRelative(st.Root, paths)
	if err != nil {
		return false, err
	}
	if len(rels) == 0 {
		return false, nil
	}
	args := append([]string{"-C", st.Root, "add", "--"}, rels...)
	if _, err := runGit(ctx, st.Root, args...); err != nil {
		return false, err
	}

	out, err := runGit(ctx, st.Root, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf("handyman: update (%s)", time.Now().UTC().Format(time.RFC3339))
	}
	if _, err := runGit(ctx, st.Root, "commit", "-m", msg); err != nil {
		return false, err
	}
	return true, nil
}

func repoRelative(root string, paths []string) ([]string, error) {
	// Temp dirs may sit behind symlinks (/var -> /private/var) while git
	// reports the resolved root.
	if v, err := filepath.EvalSymlinks(root); err == nil {
		root = v
	}
	var out []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if v, err := filepath.EvalSymlinks(abs); err == nil {
			abs = v
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return string(out), nil
}

// BatchMessage summarizes a saved batch as a commit message: a subject line
// and one line per change.
func BatchMessage(b model.Batch) string {
	var edited, added int
	for _, c := range b.Changes {
		if c.New {
			added++
		} else {
			edited++
		}
	}
	var parts []string
	if edited > 0 {
		parts = append(parts, plural(edited, "edit"))
	}
	if added > 0 {
		parts = append(parts, plural(added, "addition"))
	}
	subject := "handyman: save"
	if len(parts) > 0 {
		subject += " " + strings.Join(parts, ", ")
	}

	var sb strings.Builder
	sb.WriteString(subject)
	if len(b.Changes) > 0 {
		sb.WriteString("\n\n")
	}
	for _, c := range b.Changes {
		verb := "edit"
		if c.New {
			verb = "add"
		}
		label := c.Fields.Get(model.FieldText)
		if c.Type == model.NodeMenu {
			label = c.Fields.Get(model.FieldMenu) + ": " + label
		}
		fmt.Fprintf(&sb, "- %s %s %s\n", verb, c.Type, label)
	}
	if id := strings.TrimSpace(b.ID); id != "" {
		fmt.Fprintf(&sb, "\nBatch: %s\n", id)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
