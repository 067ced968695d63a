package searchguard

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Marshal renders a document as YAML with two-space indentation.
func Marshal(c Config) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(c.Document()); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", c.FileName())
	}

	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", c.FileName())
	}

	return buf.Bytes(), nil
}

// WriteFile writes c into dir under its canonical name and returns the path.
func WriteFile(dir string, c Config) (string, error) {
	data, err := Marshal(c)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, c.FileName())
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}

	return path, nil
}

// WriteFiles writes all documents to dir. It creates the directory if it
// doesn't exist.
func WriteFiles(dir string, configs []Config) ([]string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	paths := make([]string, 0, len(configs))

	for _, c := range configs {
		path, err := WriteFile(dir, c)
		if err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}
