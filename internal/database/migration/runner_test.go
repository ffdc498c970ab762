package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadMigrations_OrdersAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "V2__usernames.sql", "CREATE TABLE b (id INT);")
	writeFile(t, dir, "V1__profiles.sql", "CREATE TABLE a (id INT);\n")
	writeFile(t, dir, "README.md", "ignored")

	migs, err := loadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, int64(1), migs[0].Version)
	require.Equal(t, "profiles", migs[0].Name)
	require.Equal(t, "CREATE TABLE a (id INT);", migs[0].SQL)
	require.Len(t, migs[0].Checksum, 64)
	require.Equal(t, int64(2), migs[1].Version)
}

func TestLoadMigrations_RejectsDuplicatesAndEmpty(t *testing.T) {
	dup := t.TempDir()
	writeFile(t, dup, "V1__a.sql", "SELECT 1;")
	writeFile(t, dup, "V01__b.sql", "SELECT 2;")
	_, err := loadMigrations(dup)
	require.ErrorContains(t, err, "duplicate migration version")

	empty := t.TempDir()
	writeFile(t, empty, "V1__a.sql", "   \n")
	_, err = loadMigrations(empty)
	require.ErrorContains(t, err, "empty migration file")
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	migs, err := loadMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Empty(t, migs)
}

func TestRepositoryMigrationsParse(t *testing.T) {
	migs, err := loadMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	require.Equal(t, "profiles", migs[0].Name)
}
