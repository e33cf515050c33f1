package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Status struct {
	IsRepo bool `json:"isRepo"`

	Root string `json:"root,omitempty"`

	Branch   string `json:"branch,omitempty"`
	Upstream string `json:"upstream,omitempty"`
	Head     string `json:"head,omitempty"`

	Dirty    bool `json:"dirty"`
	Unmerged bool `json:"unmerged"`

	InProgress     bool   `json:"inProgress"`
	InProgressKind string `json:"inProgressKind,omitempty"` // merge|rebase|cherry-pick|revert

	Ahead  int `json:"ahead,omitempty"`
	Behind int `json:"behind,omitempty"`
}

// GetStatus reports the repository containing dir. A dir outside any
// repository is not an error.
func GetStatus(ctx context.Context, dir string) (Status, error) {
	root, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return Status{IsRepo: false}, nil
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return Status{}, errors.New("git rev-parse returned empty root")
	}

	branch, _ := git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	head, _ := git(ctx, dir, "rev-parse", "--short", "HEAD")
	upstream, _ := git(ctx, dir, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")

	porcelain, _ := git(ctx, dir, "status", "--porcelain=v1")
	dirty, unmerged := parsePorcelain(porcelain)
	inProgress, inProgressKind := detectInProgress(ctx, dir)

	ahead, behind := 0, 0
	if strings.TrimSpace(upstream) != "" {
		if counts, err := git(ctx, dir, "rev-list", "--left-right", "--count", "HEAD...@{u}"); err == nil {
			if a, b, ok := parseAheadBehind(counts); ok {
				ahead, behind = a, b
			}
		}
	}

	return Status{
		IsRepo: true,
		Root:   root,

		Branch:   strings.TrimSpace(branch),
		Upstream: strings.TrimSpace(upstream),
		Head:     strings.TrimSpace(head),

		Dirty:    dirty,
		Unmerged: unmerged,

		InProgress:     inProgress,
		InProgressKind: inProgressKind,

		Ahead:  ahead,
		Behind: behind,
	}, nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

func parsePorcelain(out string) (dirty bool, unmerged bool) {
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if len(ln) < 2 {
			continue
		}
		xy := ln[:2]
		if strings.TrimSpace(xy) == "" {
			continue
		}
		dirty = true
		if isUnmergedXY(xy) {
			unmerged = true
		}
	}
	return dirty, unmerged
}

func detectInProgress(ctx context.Context, dir string) (bool, string) {
	switch {
	case gitRefExists(ctx, dir, "MERGE_HEAD"):
		return true, "merge"
	case gitRefExists(ctx, dir, "REBASE_HEAD"):
		return true, "rebase"
	case gitRefExists(ctx, dir, "CHERRY_PICK_HEAD"):
		return true, "cherry-pick"
	case gitRefExists(ctx, dir, "REVERT_HEAD"):
		return true, "revert"
	default:
		return false, ""
	}
}

func gitRefExists(ctx context.Context, dir string, ref string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "-q", ref)
	cmd.Dir = dir
	return cmd.Run() == nil
}

func isUnmergedXY(xy string) bool {
	if len(xy) != 2 {
		return false
	}
	switch xy {
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return true
	}
	return xy[0] == 'U' || xy[1] == 'U'
}

// parseAheadBehind reads `git rev-list --left-right --count HEAD...@{u}`.
func parseAheadBehind(out string) (ahead int, behind int, ok bool) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(fields[0])
	b, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return a, b, true
}
