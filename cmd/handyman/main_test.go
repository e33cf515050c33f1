package main

import (
	"reflect"
	"testing"
)

func TestRewriteCatalogShortcutArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"handyman"},
			want: []string{"handyman"},
		},
		{
			name: "catalog first token",
			in:   []string{"handyman", "site_structure.toml"},
			want: []string{"handyman", "serve", "--catalog", "site_structure.toml"},
		},
		{
			name: "catalog after value flag",
			in:   []string{"handyman", "--log-level", "debug", "site.yaml", "--open"},
			want: []string{"handyman", "--log-level", "debug", "serve", "--catalog", "site.yaml", "--open"},
		},
		{
			name: "catalog after equals flag",
			in:   []string{"handyman", "--schemas=./schemas", "site.json"},
			want: []string{"handyman", "--schemas=./schemas", "serve", "--catalog", "site.json"},
		},
		{
			name: "catalog after bool flag",
			in:   []string{"handyman", "--pretty", "site.toml"},
			want: []string{"handyman", "--pretty", "serve", "--catalog", "site.toml"},
		},
		{
			name: "catalog after double dash",
			in:   []string{"handyman", "--", "site.toml"},
			want: []string{"handyman", "serve", "--catalog", "site.toml"},
		},
		{
			name: "catalog flag value not rewritten",
			in:   []string{"handyman", "--catalog", "site.toml", "tree"},
			want: []string{"handyman", "--catalog", "site.toml", "tree"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"handyman", "export", "--to", "out.json"},
			want: []string{"handyman", "export", "--to", "out.json"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteCatalogShortcutArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteCatalogShortcutArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
