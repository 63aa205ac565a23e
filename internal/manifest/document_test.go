package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/versionspec"
)

func TestParseDocument(t *testing.T) {
	doc, err := Parse(`[dependencies]
serde = { version = "1.0", features = ["derive"] }
local = { path = "../local" }
anyhow = "1.0.86"

[target.'cfg(unix)'.dependencies]
libc = "0.2"
`, "dependencies", "target.'cfg(unix)'.dependencies", "dev-dependencies")
	require.NoError(t, err)

	deps := doc.Table("dependencies")
	require.NotNil(t, deps)
	assert.True(t, deps.Present)
	assert.Equal(t, []string{"serde", "local", "anyhow"}, deps.Names())

	serde, ok := deps.Lookup("serde")
	require.True(t, ok)
	assert.Equal(t, versionspec.KindRange, serde.Version.Kind())
	assert.Equal(t, `{ version = "1.0", features = ["derive"] }`, serde.Source)
	raw, ok := serde.Raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0", raw["version"])

	local, _ := deps.Lookup("local")
	assert.True(t, local.Version.IsVersionless())

	anyhow, _ := deps.Lookup("anyhow")
	assert.Equal(t, versionspec.KindExact, anyhow.Version.Kind())
	assert.Equal(t, "1.0.86", anyhow.Raw)

	target := doc.Table("target.'cfg(unix)'.dependencies")
	require.NotNil(t, target)
	assert.Equal(t, []string{"libc"}, target.Names())

	dev := doc.Table("dev-dependencies")
	require.NotNil(t, dev)
	assert.False(t, dev.Present)
	_, ok = dev.Lookup("serde")
	assert.False(t, ok)

	assert.Nil(t, doc.Table("build-dependencies"))
}

func TestParseReportsPosition(t *testing.T) {
	_, err := Parse("[dependencies]\na = \"1.0.0\"\nb = \n")
	require.Error(t, err)
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryParse, classified.Category())
	line, ok := classified.Context().Get("line")
	require.True(t, ok)
	assert.Equal(t, 3, line)
}

func TestLocateSpans(t *testing.T) {
	src := "top = 1\n[a]\nx = [\n  1, # one\n  2,\n]\ny = 'lit' # c\n[[bin]]\nname = \"b\"\n"
	sections, err := locate(src)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	assert.Nil(t, sections[0].path)
	require.Len(t, sections[0].entries, 1)

	a := sections[1]
	assert.Equal(t, []string{"a"}, a.path)
	require.Len(t, a.entries, 2)
	x := a.entries[0]
	assert.Equal(t, "[\n  1, # one\n  2,\n]", src[x.value.start:x.value.end])
	y := a.entries[1]
	assert.Equal(t, "'lit'", src[y.value.start:y.value.end])
	assert.Equal(t, "y = 'lit' # c", src[y.lineStart:y.textEnd])
	assert.Equal(t, a.end, sections[2].headerStart)

	assert.True(t, sections[2].array)
	assert.Equal(t, len(src), sections[2].end)
}

func TestParseKeyPath(t *testing.T) {
	path, err := parseKeyPath(`target."x86_64-pc".'cfg(unix)'.dependencies`)
	require.NoError(t, err)
	assert.Equal(t, []string{"target", "x86_64-pc", "cfg(unix)", "dependencies"}, path)

	_, err = parseKeyPath("a b")
	assert.Error(t, err)
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "LOCAL.toml")
	remotePath := filepath.Join(dir, "REMOTE.toml")
	mergedPath := filepath.Join(dir, "Cargo.toml")

	require.NoError(t, os.WriteFile(localPath, []byte("[dependencies]\na = \"1.0.0\"\n"), 0o600))
	require.NoError(t, os.WriteFile(remotePath, []byte("[dependencies]\na = \"1.1.0\"\n"), 0o600))
	require.NoError(t, os.WriteFile(mergedPath, []byte("<<<<<<< conflict\n"), 0o600))

	res, err := MergeFiles(localPath, remotePath, mergedPath)
	require.NoError(t, err)
	require.Len(t, res.Decisions, 1)

	data, err := os.ReadFile(mergedPath)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies]\na = \"1.1.0\"\n", string(data))

	_, err = MergeFiles(filepath.Join(dir, "missing.toml"), remotePath, mergedPath)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}
