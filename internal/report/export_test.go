package report

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/facing.report/internal/fsutil"
	"github.com/banshee-data/facing.report/internal/resolver"
)

func TestExport(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	series := []EntitySeries{
		{ID: 3, Points: samplePoints()},
		{ID: 7, Points: samplePoints()[:2]},
	}

	written, err := Export(fsys, "/plots", "ses_abc", series, 35)
	require.NoError(t, err)

	dir := filepath.Join("/plots", "ses_abc")
	want := []string{
		filepath.Join(dir, "entity_3.html"),
		filepath.Join(dir, "entity_3.png"),
		filepath.Join(dir, "entity_7.html"),
		filepath.Join(dir, "entity_7.png"),
		filepath.Join(dir, "summary.json"),
	}
	assert.ElementsMatch(t, want, written)
	assert.Equal(t, want, fsys.Files("/plots"))

	png, err := fsys.ReadFile(filepath.Join(dir, "entity_3.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), png[:8])

	raw, err := fsys.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	var got struct {
		Session  string                        `json:"session"`
		Entities map[resolver.EntityID]Summary `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "ses_abc", got.Session)
	assert.Equal(t, 4, got.Entities[3].Count)
	assert.Equal(t, 2, got.Entities[7].Count)
}

func TestExportSanitizesSessionDir(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	written, err := Export(fsys, "/plots", "../../etc", nil, 35)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("/plots", "etc", "summary.json")}, written)
}
