package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/blockmat/blobstore"
	"github.com/hupe1980/blockmat/codec"
	"github.com/hupe1980/blockmat/internal/layout"
)

// CurrentVersion is the version of the manifest format.
const CurrentVersion = 1

// Suffix is appended to a matrix name to form its manifest blob name.
const Suffix = "_Manifest"

var (
	// ErrNotFound is returned when a matrix has no manifest.
	ErrNotFound = errors.New("manifest not found")

	// ErrIncompatibleVersion is returned when the manifest version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible manifest version")

	// ErrUnknownCodec is returned when the recorded codec is not built in.
	ErrUnknownCodec = errors.New("unknown manifest codec")
)

// Matrix describes a blocked matrix.
type Matrix struct {
	Version   int           `json:"version"`
	Name      string        `json:"name"`
	Source    string        `json:"source"`
	Layout    layout.Layout `json:"layout"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BlobName returns the manifest blob name of a matrix.
func BlobName(matrix string) string { return matrix + Suffix }

// Store saves and loads matrix manifests.
type Store struct {
	store blobstore.BlobStore
	codec codec.Codec
}

// NewStore creates a manifest store writing with c (codec.Default if nil).
func NewStore(store blobstore.BlobStore, c codec.Codec) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{store: store, codec: c}
}

// Save writes m, replacing any previous manifest of the same matrix.
func (s *Store) Save(ctx context.Context, m *Matrix) error {
	m.Version = CurrentVersion
	m.UpdatedAt = time.Now().UTC()

	body, err := s.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", m.Name, err)
	}
	var buf bytes.Buffer
	buf.Grow(len(s.codec.Name()) + 1 + len(body))
	buf.WriteString(s.codec.Name())
	buf.WriteByte('\n')
	buf.Write(body)

	return s.store.Put(ctx, BlobName(m.Name), buf.Bytes())
}

// Load reads the manifest of a matrix.
func (s *Store) Load(ctx context.Context, name string) (*Matrix, error) {
	data, err := blobstore.ReadAll(ctx, s.store, BlobName(name))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}

	codecName, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return nil, fmt.Errorf("manifest %s: missing codec header", name)
	}
	c, ok := codec.ByName(string(codecName))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}

	m := &Matrix{}
	if err := c.Unmarshal(body, m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	return m, nil
}

// Delete removes the manifest of a matrix. A missing manifest is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, BlobName(name))
}

// List returns the names of all matrices with a manifest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	blobs, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, b := range blobs {
		if name, ok := strings.CutSuffix(b, Suffix); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
