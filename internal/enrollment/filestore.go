package enrollment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sbinet/npyio/npy"

	"github.com/kozaktomas/whereabouts/internal/facematch"
)

// FileExt is the extension of stored embedding files (NumPy .npy).
const FileExt = ".npy"

// FileStore keeps one <identity>.npy file per identity in a directory.
// The files are plain 1-D NumPy arrays, so they can be produced or inspected
// with NumPy directly.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the embedding files.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file path for an identity.
func (s *FileStore) Path(identity string) string {
	return filepath.Join(s.dir, identity+FileExt)
}

// Save writes the embedding as a float32 1-D array, overwriting any previous file.
// The file is written to a temporary name and renamed so readers never see a partial record.
func (s *FileStore) Save(_ context.Context, identity string, embedding []float32) error {
	if err := ValidateIdentity(identity); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating embeddings directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+identity+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating embedding file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := npy.Write(tmp, embedding); err != nil {
		tmp.Close()
		return fmt.Errorf("writing embedding for %s: %w", identity, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing embedding file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(identity)); err != nil {
		return fmt.Errorf("saving embedding for %s: %w", identity, err)
	}
	return nil
}

// Delete removes the identity's file.
func (s *FileStore) Delete(_ context.Context, identity string) error {
	if err := ValidateIdentity(identity); err != nil {
		return err
	}
	if err := os.Remove(s.Path(identity)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting embedding for %s: %w", identity, err)
	}
	return nil
}

// Load reads every *.npy file in the directory. A missing directory is an
// empty database.
func (s *FileStore) Load(_ context.Context) ([]facematch.Reference, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading embeddings directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	refs := make([]facematch.Reference, 0, len(names))
	for _, name := range names {
		emb, err := readVector(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		refs = append(refs, facematch.Reference{
			Identity:  strings.TrimSuffix(name, FileExt),
			Embedding: emb,
		})
	}
	return refs, nil
}

// readVector reads a 1-D float array from a .npy file, widening or narrowing to float32.
func readVector(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening embedding: %w", err)
	}
	defer f.Close()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, &FormatError{Source: path, Reason: err.Error()}
	}
	if shape := r.Header.Descr.Shape; len(shape) != 1 {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("expected a 1-D vector, got shape %v", shape)}
	}

	switch r.Header.Descr.Type {
	case "<f4", "float32":
		var v []float32
		if err := r.Read(&v); err != nil {
			return nil, &FormatError{Source: path, Reason: err.Error()}
		}
		return v, nil
	case "<f8", "float64":
		var v []float64
		if err := r.Read(&v); err != nil {
			return nil, &FormatError{Source: path, Reason: err.Error()}
		}
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, nil
	default:
		return nil, &FormatError{Source: path, Reason: "unsupported dtype " + r.Header.Descr.Type}
	}
}
