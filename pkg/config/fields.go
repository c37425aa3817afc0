package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldforge/fieldforge/pkg/field"
)

// FieldsFile is the YAML description of a field set, used by the CLI to
// feed input fields into a plan execution.
type FieldsFile struct {
	// Points is the number of owned horizontal grid points.
	Points int `yaml:"points" validate:"required,gt=0"`

	// Halo is the number of boundary points stored after the owned ones.
	Halo int `yaml:"halo" validate:"gte=0"`

	// Fields lists the input fields.
	Fields []FieldEntry `yaml:"fields" validate:"required,dive"`
}

// FieldEntry is one field in a FieldsFile.
type FieldEntry struct {
	// Name is the variable name.
	Name string `yaml:"name" validate:"required"`

	// Levels is the number of vertical levels.
	Levels int `yaml:"levels" validate:"required,gt=0"`

	// Values holds one row per horizontal point (halo included), each
	// with Levels entries. A single row is broadcast to every point.
	Values [][]float64 `yaml:"values" validate:"required"`

	// Metadata is the field's metadata bag.
	Metadata map[string]any `yaml:"metadata"`
}

// LoadFields reads a FieldsFile and builds the field set it describes.
func (l *Loader) LoadFields(path string) (*field.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fields file %s: %w", path, err)
	}

	var ff FieldsFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse fields file %s: %w", path, err)
	}
	if err := l.validator.Struct(&ff); err != nil {
		return nil, fmt.Errorf("invalid fields file %s: %w", path, err)
	}

	space := field.Space{Points: ff.Points, Halo: ff.Halo}
	fs := field.NewSet(space)

	for _, entry := range ff.Fields {
		f := field.New(entry.Name, space, entry.Levels)

		switch len(entry.Values) {
		case space.Size():
			for jn, row := range entry.Values {
				if len(row) != entry.Levels {
					return nil, fmt.Errorf("field %s: row %d has %d values, want %d",
						entry.Name, jn, len(row), entry.Levels)
				}
				for jl, v := range row {
					f.SetAt(jn, jl, v)
				}
			}
		case 1:
			row := entry.Values[0]
			if len(row) != entry.Levels {
				return nil, fmt.Errorf("field %s: row has %d values, want %d",
					entry.Name, len(row), entry.Levels)
			}
			for jn := 0; jn < space.Size(); jn++ {
				for jl, v := range row {
					f.SetAt(jn, jl, v)
				}
			}
		default:
			return nil, fmt.Errorf("field %s: %d value rows, want 1 or %d",
				entry.Name, len(entry.Values), space.Size())
		}

		for k, v := range entry.Metadata {
			f.Metadata().Set(k, v)
		}
		fs.Add(f)
	}

	return fs, nil
}
