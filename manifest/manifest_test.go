package manifest

import (
	"context"
	"testing"

	"github.com/hupe1980/blockmat/blobstore"
	"github.com/hupe1980/blockmat/codec"
	"github.com/hupe1980/blockmat/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatrix() *Matrix {
	return &Matrix{
		Name:   "A",
		Source: "../data/A.csv",
		Layout: layout.Layout{
			Columns:       20,
			UnitsPerBlock: 16,
			BlocksPerRow:  2,
			BlockCount:    4,
			Zeros:         3,
			Shapes:        []layout.Shape{{Rows: 16, Cols: 16}, {Rows: 16, Cols: 4}, {Rows: 4, Cols: 16}, {Rows: 4, Cols: 4}},
		},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			s := NewStore(blobstore.NewMemoryStore(), c)

			in := sampleMatrix()
			require.NoError(t, s.Save(ctx, in))
			assert.Equal(t, CurrentVersion, in.Version)

			out, err := s.Load(ctx, "A")
			require.NoError(t, err)
			assert.Equal(t, in.Name, out.Name)
			assert.Equal(t, in.Source, out.Source)
			assert.Equal(t, in.Layout, out.Layout)
			assert.True(t, in.UpdatedAt.Equal(out.UpdatedAt))
		})
	}
}

func TestStore_LoadWithOtherCodec(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, NewStore(store, codec.JSON{}).Save(ctx, sampleMatrix()))

	m, err := NewStore(store, nil).Load(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 4, m.Layout.BlockCount)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s := NewStore(store, nil)

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, BlobName("B"), []byte("msgpack\n{}")))
	_, err = s.Load(ctx, "B")
	assert.ErrorIs(t, err, ErrUnknownCodec)

	require.NoError(t, store.Put(ctx, BlobName("C"), []byte(`json`+"\n"+`{"version":9}`)))
	_, err = s.Load(ctx, "C")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestStore_ListDelete(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s := NewStore(store, nil)

	for _, name := range []string{"B", "A"} {
		m := sampleMatrix()
		m.Name = name
		require.NoError(t, s.Save(ctx, m))
	}
	require.NoError(t, store.Put(ctx, "A_Page0", []byte("1\n")))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	require.NoError(t, s.Delete(ctx, "A"))
	require.NoError(t, s.Delete(ctx, "A"))

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names)
}
