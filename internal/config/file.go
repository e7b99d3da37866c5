package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// InitDefaults are optional defaults for `jjq init`, read from a
// .jjq.toml file at the repository root. Flags and wizard answers
// override them; the file never affects an initialized repository.
type InitDefaults struct {
	Trunk        string `toml:"trunk"`
	CheckCommand string `toml:"check_command"`
	Strategy     string `toml:"strategy"`
}

type defaultsFile struct {
	Init InitDefaults `toml:"init"`
}

// LoadInitDefaults reads .jjq.toml from the repository root. A missing
// file yields zero-value defaults.
func LoadInitDefaults(repoRoot string) (InitDefaults, error) {
	path := filepath.Join(repoRoot, ".jjq.toml")
	var f defaultsFile
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return InitDefaults{}, nil
	}
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return InitDefaults{}, err
	}
	return f.Init, nil
}
