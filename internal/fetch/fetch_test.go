package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPathsPassThrough(t *testing.T) {
	r := NewResolver(t.TempDir(), nil)
	got, err := r.ResolveWith(context.Background(), "maps/forests.shp", ".dbf", ".shx")
	require.NoError(t, err)
	assert.Equal(t, "maps/forests.shp", got)
}

func TestJoin(t *testing.T) {
	tests := []struct {
		src, ref, want string
	}{
		{"maps/map.i3d", "data/dem.png", filepath.Join("maps", "data", "dem.png")},
		{"https://example.com/maps/map.i3d", "data/dem.png", "https://example.com/maps/data/dem.png"},
		{"s3::https://s3.amazonaws.com/bucket/map.i3d?version=2", "dem.png", "s3::https://s3.amazonaws.com/bucket/dem.png?version=2"},
		{"https://example.com/map.i3d", "https://other.org/dem.png", "https://other.org/dem.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Join(tt.src, tt.ref), tt.src)
	}
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "https://example.com/forests.dbf", WithExt("https://example.com/forests.shp", ".dbf"))
	assert.Equal(t, "s3::https://b/forests.shx?x=1", WithExt("s3::https://b/forests.shp?x=1", ".shx"))
}

func TestIsRemote(t *testing.T) {
	assert.False(t, IsRemote("maps/map.i3d"))
	assert.False(t, IsRemote("/abs/map.i3d"))
	assert.True(t, IsRemote("https://example.com/map.i3d"))
	assert.True(t, IsRemote("s3::https://bucket/map.i3d"))
}

func TestResolveFetchesForcedFile(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "forests.xml")
	require.NoError(t, os.WriteFile(src, []byte("<forests/>"), 0o644))

	r := NewResolver(t.TempDir(), nil)
	got, err := r.Resolve(context.Background(), "file::"+src)
	require.NoError(t, err)
	assert.NotEqual(t, src, got)
	assert.Equal(t, "forests.xml", filepath.Base(got))

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "<forests/>", string(data))
}
