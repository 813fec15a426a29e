package benchmark

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrEmptyTable is returned when a benchmark file holds no usable rows.
var ErrEmptyTable = errors.New("benchmark table is empty")

// LoadFile reads a YAML benchmark table of the form
//
//	benchmarks:
//	  - {handicap: 20, expected: 0.4, min: 0.35, max: 0.45}
func LoadFile(path string) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load benchmark file %s: %w", path, err)
	}
	var rows []Entry
	if err := k.UnmarshalWithConf("benchmarks", &rows, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode benchmark file %s: %w", path, err)
	}
	t := NewTable(rows)
	if t.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}
	return t, nil
}
