package testutil

import (
	"net/http"
	"testing"

	"github.com/banshee-data/facing.report/internal/monitoring"
	"github.com/banshee-data/facing.report/internal/scenario"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestRunSynthetic(t *testing.T) {
	t.Parallel()

	f := RunSynthetic(t, scenario.SyntheticConfig{Seed: 4, Ticks: 24})
	if f.Result.Frames != 24 {
		t.Errorf("frames = %d, want 24", f.Result.Frames)
	}
	if f.Result.Published == 0 {
		t.Fatal("expected publications")
	}

	entities, err := f.DB.Entities(f.Session.ID)
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(entities) == 0 {
		t.Error("no entities recorded")
	}
	if len(f.Overrides.All()) == 0 {
		t.Error("no overrides applied")
	}
}

func TestAssertStatusCode(t *testing.T) {
	t.Parallel()
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}
