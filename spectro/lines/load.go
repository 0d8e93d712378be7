package lines

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const maxFileSize = 8 * 1024 * 1024

type fileFormat struct {
	Lines []AbsorptionLine `yaml:"lines"`
}

// Load decodes a YAML (or JSON) line list and builds a database.
//
// The document has a single top-level key:
//
//	lines:
//	  - molecule: O2
//	    center_nm: 760.0
//	    strength: 1.2
//	    width_nm: 2.0
func Load(r io.Reader) (*Database, error) {
	var doc fileFormat

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return NewDatabase()
		}
		return nil, fmt.Errorf("lines: decode: %w", err)
	}

	return NewDatabase(doc.Lines...)
}

// LoadFile reads a line list from path.
func LoadFile(path string) (*Database, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("lines: stat %q: %w", cleanPath, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("lines: file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("lines: open %q: %w", cleanPath, err)
	}
	defer f.Close()

	return Load(f)
}
