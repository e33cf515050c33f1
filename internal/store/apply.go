package store

import (
	"errors"
	"fmt"
	"strings"

	"handyman/internal/model"
)

// ApplyBatch returns a copy of cat with every change applied.
//
// Menus are matched by their original key and offerings by their original
// (menu, text) pair. A renamed menu drags its sub-menus and offerings along.
// Changes that are new, or whose original record is gone, are appended.
func ApplyBatch(cat model.Catalog, b model.Batch) (model.Catalog, error) {
	out := model.Catalog{
		Menus:     cloneRecords(cat.Menus),
		Offerings: cloneRecords(cat.Offerings),
	}
	renamed := map[string]string{}
	writtenMenus := map[int]bool{}
	writtenOfferings := map[int]bool{}

	for i, ch := range b.Changes {
		if ch.Type != model.NodeMenu {
			continue
		}
		key := strings.TrimSpace(ch.Fields.Get(model.FieldMenu))
		idx := -1
		if !ch.New && ch.Original != nil {
			idx = findMenu(out.Menus, ch.Original.Get(model.FieldMenu))
		}
		if idx < 0 {
			out.Menus = append(out.Menus, recordFrom(nil, ch.Fields))
			writtenMenus[len(out.Menus)-1] = true
			continue
		}
		old := strings.TrimSpace(out.Menus[idx].String(model.FieldMenu))
		out.Menus[idx] = recordFrom(out.Menus[idx], ch.Fields)
		writtenMenus[idx] = true
		if old != key && old != "" {
			if key == "" {
				return out, fmt.Errorf("change %d: menu %q renamed to an empty key", i, old)
			}
			renamed[old] = key
		}
	}

	// Records on disk still name menus by their old keys. One pass, so a
	// chain of renames (B->C, A->B) does not move A's children to C.
	repoint(out.Menus, model.FieldParent, renamed, func(i int) bool { return !writtenMenus[i] })
	repoint(out.Offerings, model.FieldMenu, renamed, func(int) bool { return true })

	for _, ch := range b.Changes {
		if ch.Type != model.NodeOffering {
			continue
		}
		idx := -1
		if !ch.New && ch.Original != nil {
			// The snapshot may predate the rename or already carry the new key.
			menu := strings.TrimSpace(ch.Original.Get(model.FieldMenu))
			text := ch.Original.Get(model.FieldText)
			if to, ok := renamed[menu]; ok {
				idx = findOffering(out.Offerings, to, text)
			}
			if idx < 0 {
				idx = findOffering(out.Offerings, menu, text)
			}
		}
		if idx < 0 {
			out.Offerings = append(out.Offerings, recordFrom(nil, ch.Fields))
			writtenOfferings[len(out.Offerings)-1] = true
			continue
		}
		out.Offerings[idx] = recordFrom(out.Offerings[idx], ch.Fields)
		writtenOfferings[idx] = true
	}

	// Records written from the batch may still carry a pre-rename key. Keys
	// that name a live menu are left alone.
	stale := func(records []model.Record, field string, written map[int]bool) func(int) bool {
		return func(i int) bool {
			return written[i] && findMenu(out.Menus, records[i].String(field)) < 0
		}
	}
	repoint(out.Menus, model.FieldParent, renamed, stale(out.Menus, model.FieldParent, writtenMenus))
	repoint(out.Offerings, model.FieldMenu, renamed, stale(out.Offerings, model.FieldMenu, writtenOfferings))

	if errs := out.Validate(); len(errs) > 0 {
		return out, fmt.Errorf("catalog invalid after batch: %w", errors.Join(errs...))
	}
	return out, nil
}

func cloneRecords(in []model.Record) []model.Record {
	out := make([]model.Record, 0, len(in))
	for _, r := range in {
		c := make(model.Record, len(r))
		for k, v := range r {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}

// recordFrom overlays fields on base. Blank values are only written when the
// record already had that key, so optional fields stay absent.
func recordFrom(base model.Record, fields model.Fields) model.Record {
	r := model.Record{}
	for k, v := range base {
		r[k] = v
	}
	for _, name := range fields.Names() {
		v := fields.Get(name)
		if _, had := r[name]; v == "" && !had {
			continue
		}
		r[name] = v
	}
	return r
}

func findMenu(menus []model.Record, key string) int {
	key = strings.TrimSpace(key)
	for i, m := range menus {
		if strings.TrimSpace(m.String(model.FieldMenu)) == key {
			return i
		}
	}
	return -1
}

func findOffering(offerings []model.Record, menu, text string) int {
	menu = strings.TrimSpace(menu)
	for i, o := range offerings {
		if strings.TrimSpace(o.String(model.FieldMenu)) == menu && o.String(model.FieldText) == text {
			return i
		}
	}
	return -1
}

// repoint rewrites field through renamed on every record selected by pick.
func repoint(records []model.Record, field string, renamed map[string]string, pick func(i int) bool) {
	if len(renamed) == 0 {
		return
	}
	for i, r := range records {
		if !pick(i) {
			continue
		}
		if to, ok := renamed[strings.TrimSpace(r.String(field))]; ok {
			r[field] = to
		}
	}
}
