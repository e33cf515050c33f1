package main

import (
	"os"
	"path/filepath"
	"strings"

	"handyman/internal/cli"
)

func isCatalogPath(s string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(s))) {
	case ".toml", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// rewriteCatalogShortcutArgs turns `handyman <catalog-file>` into
// `handyman serve --catalog <catalog-file>`. Cobra treats the first
// non-flag token as a subcommand, so argv is rewritten before parsing.
func rewriteCatalogShortcutArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Persistent flags may come first; skip their values so a flag value
	// is never mistaken for the catalog.
	valueFlags := map[string]bool{
		"--catalog":   true,
		"--schemas":   true,
		"--format":    true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isCatalogPath(argv[i+1]) {
				return serveArgs(argv[:i], argv[i+1], argv[i+2:])
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isCatalogPath(a) {
			return serveArgs(argv[:i], a, argv[i+1:])
		}
		return argv
	}
	return argv
}

func serveArgs(head []string, catalog string, tail []string) []string {
	out := make([]string, 0, len(head)+len(tail)+3)
	out = append(out, head...)
	out = append(out, "serve", "--catalog", catalog)
	return append(out, tail...)
}

func main() {
	os.Args = rewriteCatalogShortcutArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
