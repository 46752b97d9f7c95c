package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_StoreRetrieve(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	ref, err := s.Store(ctx, owner, []byte("front of id"), "image/jpeg; charset=binary")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "documents/"+owner.String()+"/"))
	assert.True(t, OwnedBy(ref, owner))
	assert.False(t, OwnedBy(ref, uuid.New()))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	data, err := s.Retrieve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("front of id"), data)
}

func TestLocalStorage_Retrieve(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Retrieve(ctx, "documents/2026/01/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Retrieve(ctx, "documents/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = s.Retrieve(ctx, "/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestOwnedBy(t *testing.T) {
	owner := uuid.New()
	prefix := "documents/" + owner.String()

	tests := []struct {
		name      string
		reference string
		owner     uuid.UUID
		want      bool
	}{
		{name: "owner scoped", reference: prefix + "/2026/10/a.jpg", owner: owner, want: true},
		{name: "other owner", reference: prefix + "/2026/10/a.jpg", owner: uuid.New()},
		{name: "unscoped", reference: "documents/2026/10/a.jpg", owner: owner},
		{name: "id prefix only", reference: prefix + "x/2026/10/a.jpg", owner: owner},
		{name: "traversal out of owner", reference: prefix + "/../other/a.jpg", owner: owner},
		{name: "nil owner", reference: "documents/" + uuid.Nil.String() + "/a.jpg", owner: uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OwnedBy(tt.reference, tt.owner))
		})
	}
}

func TestIsAllowedContentType(t *testing.T) {
	assert.True(t, IsAllowedContentType("image/png"))
	assert.True(t, IsAllowedContentType("Application/PDF"))
	assert.False(t, IsAllowedContentType("text/html"))
}

func TestNew(t *testing.T) {
	s, err := New(config.StorageConfig{Type: TypeLocal, BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(config.StorageConfig{Type: TypeS3})
	assert.Error(t, err, "bucket required")

	_, err = New(config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
