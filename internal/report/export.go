package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/facing.report/internal/db"
	"github.com/banshee-data/facing.report/internal/fsutil"
	"github.com/banshee-data/facing.report/internal/resolver"
	"github.com/banshee-data/facing.report/internal/security"
)

// EntitySeries is one entity's publications within a session.
type EntitySeries struct {
	ID     resolver.EntityID
	Points []Point
}

// LoadSession reads every entity timeline recorded for a session.
func LoadSession(database *db.DB, sessionID string) ([]EntitySeries, error) {
	ids, err := database.Entities(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]EntitySeries, 0, len(ids))
	for _, id := range ids {
		rows, err := database.Timeline(sessionID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, EntitySeries{ID: id, Points: PointsFromTimeline(rows)})
	}
	return out, nil
}

type exportSummary struct {
	Session  string                        `json:"session"`
	Entities map[resolver.EntityID]Summary `json:"entities"`
}

// Export writes a PNG plot and an HTML chart per entity plus summary.json
// into dir/<session>. It returns the paths written.
func Export(fsys fsutil.FileSystem, dir, sessionID string, series []EntitySeries, tolerance float64) ([]string, error) {
	outDir, err := security.JoinWithin(dir, security.SanitizeFilename(sessionID))
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var written []string
	write := func(name string, render func(io.Writer) error) error {
		path, err := security.JoinWithin(outDir, name)
		if err != nil {
			return err
		}
		f, err := fsys.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := render(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	summary := exportSummary{Session: sessionID, Entities: make(map[resolver.EntityID]Summary, len(series))}
	for _, s := range series {
		title := fmt.Sprintf("%s entity %s", sessionID, s.ID)
		pts := s.Points
		if err := write(fmt.Sprintf("entity_%s.png", s.ID), func(w io.Writer) error {
			return WritePNG(w, title, pts)
		}); err != nil {
			return written, err
		}
		if err := write(fmt.Sprintf("entity_%s.html", s.ID), func(w io.Writer) error {
			return RenderTimeline(w, title, pts)
		}); err != nil {
			return written, err
		}
		summary.Entities[s.ID] = Summarize(pts, tolerance)
	}

	err = write("summary.json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	})
	return written, err
}
