package director

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTimelineWriteRead(t *testing.T) {
	rep, err := quietDirector(&fakeRenderer{fps: 30}).RunScene(context.Background(), "cells", cellsScene(3))
	if err != nil {
		t.Fatalf("RunScene failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "timeline.yaml")
	if err := WriteTimeline(NewTimeline([]Report{rep}), path); err != nil {
		t.Fatalf("WriteTimeline failed: %v", err)
	}

	got, err := ReadTimeline(path)
	if err != nil {
		t.Fatalf("ReadTimeline failed: %v", err)
	}
	if got.Version != TimelineVersion || len(got.Scenes) != 1 {
		t.Fatalf("unexpected timeline %+v", got)
	}

	sc := got.Scenes[0]
	if sc.Name != "cells" || sc.Tracked != 6 || sc.Released != 6 {
		t.Errorf("scene record %s tracked %d released %d", sc.Name, sc.Tracked, sc.Released)
	}
	if len(sc.Steps) != rep.Steps {
		t.Fatalf("recorded %d steps, want %d", len(sc.Steps), rep.Steps)
	}
	first := sc.Steps[0]
	if first.Easing != "smooth" || len(first.Actions) != 3 || first.Actions[0].Kind != "fade_in" {
		t.Errorf("unexpected first entry %+v", first)
	}
	if !strings.HasPrefix(first.Actions[0].Target, "cell0#") {
		t.Errorf("target label %q should carry the stage ID", first.Actions[0].Target)
	}
}

func TestTimelinePath(t *testing.T) {
	now := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	got := TimelinePath(filepath.Join("output", "palindrome.mp4"), now)

	want := filepath.Join("output", "palindrome_timeline_2026-02-13_01-00-00.yaml")
	if got != want {
		t.Errorf("TimelinePath = %s, want %s", got, want)
	}
}
