package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// SaveAtomic validates cfg, then replaces path keeping the previous file as
// path.bak.
func SaveAtomic(path string, cfg Config) error {
	cfg, v := NormalizeAndValidate(cfg)
	if err := v.Err(); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return errors.Wrap(os.Rename(tmp, path), "replace config")
}
