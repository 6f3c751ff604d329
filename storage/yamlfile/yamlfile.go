// Package yamlfile reads the content catalog from YAML documents.
package yamlfile

import (
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/classbook/core/catalog"
)

// Decode reads one catalog document. Unknown keys are rejected.
func Decode(r io.Reader) (*catalog.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	cat := new(catalog.Catalog)
	if err := dec.Decode(cat); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty catalog document")
		}
		return nil, errors.Wrap(err, "decoding catalog")
	}
	return cat, nil
}

// Encode writes cat as YAML.
func Encode(w io.Writer, cat *catalog.Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		return errors.Wrap(err, "encoding catalog")
	}
	return enc.Close()
}

// FSRepository loads the catalog from a file of a fs.FS (e.g. the embedded assets).
type FSRepository struct {
	fsys fs.FS
	path string
}

var _ catalog.Repository = (*FSRepository)(nil) // interface compliance check

func NewFSRepository(fsys fs.FS, path string) *FSRepository {
	return &FSRepository{fsys: fsys, path: path}
}

func (repo *FSRepository) Load(_ context.Context) (*catalog.Catalog, error) {
	f, err := repo.fsys.Open(repo.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", repo.path)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// FileRepository loads the catalog from a file on disk, re-reading it on every Load.
type FileRepository struct {
	path string
}

var _ catalog.Repository = (*FileRepository)(nil) // interface compliance check

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (repo *FileRepository) Path() string { return repo.path }

func (repo *FileRepository) Load(_ context.Context) (*catalog.Catalog, error) {
	f, err := os.Open(repo.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", repo.path)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
