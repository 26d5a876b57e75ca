package items

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed item.schema.json
var schemaJSON []byte

const schemaURL = "mem://onehand/item.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func itemSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load reads every *.json file under dir (each a JSON array of item
// definitions) into a new registry. The registry is not marked ready.
func Load(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	reg := NewRegistry()
	var concat bytes.Buffer
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		concat.Write(b)
		concat.WriteByte('\n')

		defs, err := DecodeDefs(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		for _, d := range defs {
			if err := reg.Put(NewItem(d)); err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
			}
		}
	}

	reg.DefsDigest = sha256Hex(concat.Bytes())
	palJSON, _ := json.Marshal(reg.IDs())
	reg.PaletteDigest = sha256Hex(palJSON)
	return reg, nil
}

// DecodeDefs validates raw against the item schema and decodes it.
func DecodeDefs(raw []byte) ([]Def, error) {
	s, err := itemSchema()
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, err
	}

	var defs []Def
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, err
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("empty id")
		}
	}
	return defs, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
