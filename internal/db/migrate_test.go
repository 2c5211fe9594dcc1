package db

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidora/monetization/internal/models"
)

func TestPendingMigrationsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o700))

	files, err := pendingMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, files)
}

func TestPendingMigrationsMissingDir(t *testing.T) {
	_, err := pendingMigrations(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// Clicks are public and unbounded relative to impressions, so the ctr column
// must hold ratios far beyond 100%.
func TestInitSchemaCTRColumnFitsClickFloods(t *testing.T) {
	sql, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)

	m := regexp.MustCompile(`(?m)^\s*ctr\s+NUMERIC\((\d+),(\d+)\)`).FindSubmatch(sql)
	require.NotNil(t, m, "ctr column not found")
	precision, _ := strconv.Atoi(string(m[1]))
	scale, _ := strconv.Atoi(string(m[2]))

	ctr := models.CTR(1_000_000_000, 1)
	intDigits := len(ctr.Truncate(0).String())
	assert.LessOrEqual(t, intDigits, precision-scale, "ctr %s does not fit NUMERIC(%d,%d)", ctr, precision, scale)
}
