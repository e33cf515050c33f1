package model

import (
	"fmt"
	"strings"
)

// Validate checks the catalog's structural invariants and returns every
// problem found: duplicate or empty menu keys, parents and offering menus
// that do not resolve, and parent cycles.
func (c Catalog) Validate() []error {
	var errs []error

	keys := map[string]int{}
	for i, m := range c.Menus {
		key := strings.TrimSpace(m.String(FieldMenu))
		if key == "" {
			errs = append(errs, fmt.Errorf("menus[%d]: menu key is required", i))
			continue
		}
		if prev, ok := keys[key]; ok {
			errs = append(errs, fmt.Errorf("menus[%d]: duplicate menu key %q (first at menus[%d])", i, key, prev))
			continue
		}
		keys[key] = i
	}

	roots := 0
	for i, m := range c.Menus {
		parent := strings.TrimSpace(m.String(FieldParent))
		if parent == "" {
			roots++
			continue
		}
		if _, ok := keys[parent]; !ok {
			errs = append(errs, fmt.Errorf("menus[%d]: parent %q does not reference a menu", i, parent))
		}
	}
	if len(c.Menus) > 0 && roots == 0 {
		errs = append(errs, fmt.Errorf("catalog has no root menu"))
	}

	for i, o := range c.Offerings {
		menu := strings.TrimSpace(o.String(FieldMenu))
		if menu == "" {
			errs = append(errs, fmt.Errorf("offerings[%d]: menu is required", i))
			continue
		}
		if _, ok := keys[menu]; !ok {
			errs = append(errs, fmt.Errorf("offerings[%d]: menu %q does not reference a menu", i, menu))
		}
	}

	errs = append(errs, c.cycles(keys)...)
	return errs
}

func (c Catalog) cycles(keys map[string]int) []error {
	var errs []error
	parentOf := map[string]string{}
	for _, m := range c.Menus {
		key := strings.TrimSpace(m.String(FieldMenu))
		if _, dup := parentOf[key]; dup {
			continue
		}
		parentOf[key] = strings.TrimSpace(m.String(FieldParent))
	}
	reported := map[string]bool{}
	for _, m := range c.Menus {
		start := strings.TrimSpace(m.String(FieldMenu))
		seen := map[string]bool{}
		for cur := start; cur != ""; cur = parentOf[cur] {
			if _, ok := keys[cur]; !ok {
				break
			}
			if seen[cur] {
				if !reported[cur] {
					errs = append(errs, fmt.Errorf("menu %q is part of a parent cycle", cur))
				}
				for k := range seen {
					reported[k] = true
				}
				break
			}
			seen[cur] = true
		}
	}
	return errs
}
