package importer_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuildOfCalamity/BalanceAct/internal/importer"
	"github.com/GuildOfCalamity/BalanceAct/internal/importer/csv"
	"github.com/GuildOfCalamity/BalanceAct/internal/importer/ofx"
	"github.com/GuildOfCalamity/BalanceAct/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestRegistry() *importer.Registry {
	return importer.NewRegistry(
		csv.NewParser(nil, logging.Nop()),
		ofx.NewParser(nil, logging.Nop()),
	)
}

func TestFindParser(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "chase.csv", "Transaction Date,Description,Category,Amount\n")
	qfxPath := writeFile(t, dir, "card.qfx", "OFXHEADER:100\nDATA:OFXSGML\n<OFX></OFX>\n")
	txtPath := writeFile(t, dir, "notes.txt", "nothing importable here\n")

	reg := newTestRegistry()

	p, err := reg.FindParser(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Name())

	p, err = reg.FindParser(qfxPath)
	require.NoError(t, err)
	assert.Equal(t, "ofx", p.Name())

	_, err = reg.FindParser(txtPath)
	assert.Error(t, err, "unknown formats must not silently pick a parser")

	_, err = reg.FindParser(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestListParsers(t *testing.T) {
	reg := newTestRegistry()
	assert.Equal(t, []string{"csv", "ofx"}, reg.ListParsers())
}

func TestRegister(t *testing.T) {
	reg := importer.NewRegistry()
	assert.Empty(t, reg.ListParsers())
	reg.Register(csv.NewParser(nil, logging.Nop()))
	assert.Equal(t, []string{"csv"}, reg.ListParsers())
}

func TestDiscoverDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "x")
	writeFile(t, dir, "b.qfx", "x")
	writeFile(t, dir, "c.OFX", "x")
	writeFile(t, dir, "skip.txt", "x")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeFile(t, sub, "d.csv", "x")

	files, err := importer.Discover(dir)
	require.NoError(t, err)
	assert.Len(t, files, 4, "discovery must recurse and filter by extension")
}

func TestDiscoverSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "only.csv", "x")

	files, err := importer.Discover(path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].FilePath())
}

func TestDiscoverMissingPath(t *testing.T) {
	_, err := importer.Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestNewMetadata(t *testing.T) {
	_, err := importer.NewMetadata("", time.Now())
	assert.Error(t, err, "empty path must be rejected")

	_, err = importer.NewMetadata("file.csv", time.Time{})
	assert.Error(t, err, "zero detection time must be rejected")

	meta, err := importer.NewMetadata("file.csv", time.Now())
	require.NoError(t, err)
	assert.Equal(t, " from file.csv", importer.FileInfo(meta))
	assert.Equal(t, "", importer.FileInfo(nil))
}
