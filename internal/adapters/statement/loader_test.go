package statement

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Chase.csv", "Status,Date,Description,Debit,Credit\nCLEARED,01/16/2024,Spotify,12.99,\n")
	writeFile(t, dir, "Amex.csv", "Date,Description,Amount\n01/15/2024,Netflix,19.99\n")
	writeFile(t, dir, "notes.txt", "02/01/24 HULU $7.99\n")
	writeFile(t, dir, "other.csv", "Invalid,Headers\n1,2\n")
	writeFile(t, dir, "readme.md", "01/01/24 IGNORED $1.00\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0755))

	txs, err := NewParser(nil).LoadDir(context.Background(), dir)

	require.NoError(t, err)
	require.Len(t, txs, 3)
	// sorted path order: Amex.csv, Chase.csv, notes.txt
	assert.Equal(t, "Netflix", txs[0].Merchant)
	assert.Equal(t, "Amex", txs[0].Source)
	assert.Equal(t, "Spotify", txs[1].Merchant)
	assert.Equal(t, "Chase", txs[1].Source)
	assert.Equal(t, "HULU", txs[2].Merchant)
	assert.Equal(t, "notes", txs[2].Source)
}

func TestLoadFiles_OrderIndependentOfArguments(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "Date,Description,Amount\n01/15/2024,Netflix,19.99\n")
	b := writeFile(t, dir, "b.txt", "01/20/24 SPOTIFY $9.99\n")
	parser := NewParser(nil).WithConcurrency(2)

	forward, err := parser.LoadFiles(context.Background(), []string{a, b})
	require.NoError(t, err)
	backward, err := parser.LoadFiles(context.Background(), []string{b, a})
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
	require.Len(t, forward, 2)
	assert.Equal(t, "Netflix", forward[0].Merchant)
}

func TestLoadFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	unsupported := writeFile(t, dir, "x.csv", "Invalid,Headers\n")
	pdf := writeFile(t, dir, "x.pdf", "%PDF")
	good := writeFile(t, dir, "good.csv", "Date,Description,Amount\n01/15/2024,Netflix,19.99\n")
	parser := NewParser(nil)

	t.Run("unsupported header", func(t *testing.T) {
		_, err := parser.LoadFiles(context.Background(), []string{unsupported})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := parser.LoadFiles(context.Background(), []string{pdf})
		assert.ErrorContains(t, err, "unsupported file type")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := parser.LoadFiles(context.Background(), []string{filepath.Join(dir, "missing.csv")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := parser.LoadFiles(ctx, []string{good})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "Chase Freedom", SourceName("/tmp/Chase Freedom.csv"))
	assert.Equal(t, "notes", SourceName("notes.txt"))
}
