// Package testutil provides shared fixtures for tests that need a populated
// session store.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/facing.report/internal/db"
	"github.com/banshee-data/facing.report/internal/resolver"
	"github.com/banshee-data/facing.report/internal/scenario"
)

// HitTolerance is the degree tolerance fixtures use for auto feedback.
const HitTolerance = 35.0

// OpenDB opens a migrated sqlite store in t.TempDir and closes it on cleanup.
func OpenDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// Fixture is an engine that has played a synthetic session into a store.
type Fixture struct {
	DB        *db.DB
	Session   *db.Session
	Engine    *resolver.Engine
	Overrides *scenario.OverrideTable
	Result    scenario.Result
}

// RunSynthetic plays a synthetic scenario through a fresh engine with auto
// feedback, recording into a fresh store.
func RunSynthetic(t *testing.T, cfg scenario.SyntheticConfig, opts ...resolver.Option) *Fixture {
	t.Helper()
	f := &Fixture{DB: OpenDB(t), Overrides: scenario.NewOverrideTable()}

	sess, err := f.DB.CreateSession("fixture", "synthetic", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	f.Session = sess

	opts = append([]resolver.Option{resolver.WithSink(f.Overrides)}, opts...)
	f.Engine = resolver.NewEngine(resolver.DefaultConfig(), opts...)

	runner := &scenario.Runner{
		Engine:       f.Engine,
		Recorder:     f.DB.Recorder(sess.ID),
		AutoFeedback: true,
		HitTolerance: HitTolerance,
	}
	res, err := runner.Run(t.Context(), scenario.NewGenerator(cfg))
	if err != nil {
		t.Fatalf("run synthetic: %v", err)
	}
	f.Result = res
	return f
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
