package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

type LoadOptions struct {
	// EnvPrefix is prepended to every `env` tag, ex. "SCRAPESYNC_".
	EnvPrefix string
	// DotEnv files are loaded into the process environment before it is
	// parsed, earlier files take priority and missing files are skipped.
	// Variables that are already set are never overwritten.
	DotEnv []string
	// Recursive looks for the config file in parent directories as well.
	Recursive bool
	// Optional allows the config file to be missing entirely.
	Optional bool
}

// Load layers configuration from the following sources, where a higher
// number is more prioritized.
// 1. defaults
// 2. <name>.<ext>
// 3. <name>.local.<ext>
// 4. dotenv files, then the process environment
func Load[T any](name string, defaults T, opts LoadOptions) (T, error) {
	var out T
	var err error
	if opts.Recursive {
		out, err = ReadRecursively[T](name)
	} else {
		out, err = ReadConfig[T](name)
	}
	if errors.Is(err, os.ErrNotExist) && opts.Optional {
		err = nil
	}
	if err != nil {
		return out, err
	}

	// fills every field left empty by the files
	err = mergo.Merge(&out, defaults)
	if err != nil {
		return out, fmt.Errorf("apply defaults: %w", err)
	}

	err = LoadDotEnv(opts.DotEnv...)
	if err != nil {
		return out, err
	}
	err = env.ParseWithOptions(&out, env.Options{Prefix: opts.EnvPrefix})
	if err != nil {
		return out, fmt.Errorf("parse environment: %w", err)
	}
	return out, nil
}

// localName turns "dir/config.json5" into "dir/config.local.json5".
func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// readJSON5 decodes the file at path into out, ok is false when the file
// does not exist or is empty.
func readJSON5(path string, out any) (ok bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("decode config %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads the json5 file at name and merges <name>.local.<ext>
// over it. It fails with an error matching os.ErrNotExist when neither
// file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found, err := readJSON5(name, &out)
	if err != nil {
		return out, err
	}

	local := localName(name)
	var override T
	foundLocal, err := readJSON5(local, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge config %s: %w", local, err)
		}
		slog.Debug("merged config with local overrides", "local", local)
	}

	if !found && !foundLocal {
		return out, fmt.Errorf("read config %s: %w", name, os.ErrNotExist)
	}
	return out, nil
}

// ReadRecursively calls ReadConfig in the working directory and then in
// every parent directory up to the root, the first directory holding the
// file wins. Absolute names are read as is.
func ReadRecursively[T any](name string) (T, error) {
	if filepath.IsAbs(name) {
		return ReadConfig[T](name)
	}

	var out T
	dir, err := os.Getwd()
	if err != nil {
		return out, fmt.Errorf("read config %s: %w", name, err)
	}
	for {
		out, err = ReadConfig[T](filepath.Join(dir, name))
		if !errors.Is(err, os.ErrNotExist) {
			return out, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return out, fmt.Errorf("read config %s in any parent directory: %w", name, os.ErrNotExist)
		}
		dir = parent
	}
}

// LoadDotEnv loads every existing file into the process environment.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		_, err := os.Stat(f)
		if os.IsNotExist(err) {
			continue
		}
		err = godotenv.Load(f)
		if err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
