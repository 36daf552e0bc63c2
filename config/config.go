// Package config loads the small set of operator-tunable parameters for a
// running trie engine from an optional TOML file, following
// ProbeChain-go-probe's node-configuration loader (cmd/gprobe/config.go).
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// tomlSettings mirrors the teacher's convention of using Go struct field
// names verbatim as TOML keys, and rejecting unrecognized fields outright
// rather than silently ignoring typos.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Facade holds the operator-tunable parameters for a running trie engine
// (spec.md §6.3's table names, plus this expansion's cache sizing).
type Facade struct {
	// CacheSize is the number of entries kept in the nodecache LRU in front
	// of each NodeStore. Zero disables caching.
	CacheSize int

	// ContractsTable and GlobalTable name the two logical NodeStore tables.
	ContractsTable string
	GlobalTable    string
}

// Default returns the Facade used when no config file is supplied.
func Default() Facade {
	return Facade{
		CacheSize:      4096,
		ContractsTable: "tree_contracts",
		GlobalTable:    "tree_global",
	}
}

// Load reads and parses a TOML config file at path, starting from Default()
// and overriding only the fields present in the file.
func Load(path string) (Facade, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return Facade{}, err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	var lineErr *toml.LineError
	if errors.As(err, &lineErr) {
		err = fmt.Errorf("%s, %w", path, err)
	}
	if err != nil {
		return Facade{}, err
	}
	return cfg, nil
}
