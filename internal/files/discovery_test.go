package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch creates name under dir with a modification time offset minutes
// after a fixed base.
func touch(t *testing.T, dir, name string, offset int) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))
	modTime := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute)
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestFindWorkbooks(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "only workbooks",
			files:    []string{"GGSN_march.xlsx", "IX_march.XLSX", "macro.xlsm"},
			expected: []string{"GGSN_march.xlsx", "IX_march.XLSX", "macro.xlsm"},
		},
		{
			name:     "mixed file types",
			files:    []string{"GGSN.xlsx", "data.csv", "legacy.xls", "notes.txt"},
			expected: []string{"GGSN.xlsx"},
		},
		{
			name:     "lock files skipped",
			files:    []string{"~$GGSN.xlsx", "GGSN.xlsx"},
			expected: []string{"GGSN.xlsx"},
		},
		{
			name:     "empty directory",
			files:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			dir := filepath.Join(base, "exports")
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.xlsx"), 0755))
			for i, name := range tt.files {
				touch(t, dir, name, i)
			}

			found, err := NewDiscovery(base).FindWorkbooks("exports")
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindWorkbooks_OldestFirst(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b_GGSN.xlsx", 5)
	touch(t, dir, "a_GGSN.xlsx", 10)
	touch(t, dir, "c_GGSN.xlsx", 0)

	found, err := NewDiscovery("/unused").FindWorkbooks(dir)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "c_GGSN.xlsx", found[0].Name)
	assert.Equal(t, "b_GGSN.xlsx", found[1].Name)
	assert.Equal(t, "a_GGSN.xlsx", found[2].Name)
}

func TestFindWorkbooks_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindWorkbooks("absent")
	assert.Error(t, err)
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "old.xlsx", ModTime: now.Add(-time.Hour)},
		{Name: "new.xlsx", ModTime: now},
		{Name: "mid.xlsx", ModTime: now.Add(-time.Minute)},
	})
	require.True(t, ok)
	assert.Equal(t, "new.xlsx", latest.Name)
}
