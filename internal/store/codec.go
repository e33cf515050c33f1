package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"handyman/internal/model"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown catalog format")

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the catalog format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Base(path))
	}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTOML, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func Decode(f Format, b []byte) (model.Catalog, error) {
	var cat model.Catalog
	var err error
	switch f {
	case FormatTOML:
		err = toml.Unmarshal(b, &cat)
	case FormatYAML:
		err = yaml.Unmarshal(b, &cat)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		err = dec.Decode(&cat)
	default:
		return cat, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return cat, fmt.Errorf("decode %s catalog: %w", f, err)
	}
	if cat.Menus == nil {
		cat.Menus = []model.Record{}
	}
	if cat.Offerings == nil {
		cat.Offerings = []model.Record{}
	}
	return cat, nil
}

func Encode(f Format, cat model.Catalog) ([]byte, error) {
	switch f {
	case FormatTOML:
		return toml.Marshal(cat)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cat); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		b, err := json.MarshalIndent(cat, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
