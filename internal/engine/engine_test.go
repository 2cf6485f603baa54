package engine

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/explainer/internal/config"
	"github.com/ivlev/explainer/internal/director"
	"github.com/ivlev/explainer/internal/scenes"
	"github.com/ivlev/explainer/internal/video"
)

type fakeSegment struct {
	enc    *fakeEncoder
	closed bool
}

func (s *fakeSegment) WriteFrame(*image.RGBA) error {
	s.enc.frames++
	return nil
}

func (s *fakeSegment) Close() error {
	s.closed = true
	return nil
}

type fakeEncoder struct {
	opened   []string
	segments []*fakeSegment
	frames   int
	joined   []string
	final    string
	openErr  error
}

func (e *fakeEncoder) Open(_ context.Context, path string) (video.Segment, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.opened = append(e.opened, path)
	s := &fakeSegment{enc: e}
	e.segments = append(e.segments, s)
	return s, nil
}

func (e *fakeEncoder) Concatenate(_ context.Context, segs []string, final, _ string) error {
	e.joined = segs
	e.final = final
	return nil
}

func testConfig(t *testing.T, sceneNames ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Scenes:    sceneNames,
		OutputDir: dir,
		Width:     64,
		Height:    36,
		FPS:       5,
		Encoder:   "libx264",
		Quality:   23,
	}
}

func TestDryRunWritesTimeline(t *testing.T) {
	cfg := testConfig(t, "palindrome", "outro")
	cfg.DryRun = true
	cfg.Timeline = filepath.Join(cfg.OutputDir, "plan.yaml")
	enc := &fakeEncoder{}

	res, err := NewProject(cfg, enc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(enc.opened) != 0 {
		t.Errorf("dry run opened %d segments", len(enc.opened))
	}
	if len(res.Reports) != 2 || res.Frames == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, rep := range res.Reports {
		if rep.Tracked != rep.Released {
			t.Errorf("scene %s leaked: %d tracked, %d released", rep.Name, rep.Tracked, rep.Released)
		}
	}

	tl, err := director.ReadTimeline(cfg.Timeline)
	if err != nil {
		t.Fatalf("ReadTimeline failed: %v", err)
	}
	if len(tl.Scenes) != 2 || tl.Scenes[0].Name != "palindrome" || tl.Scenes[1].Frames != res.Reports[1].Frames {
		t.Errorf("timeline does not match the run: %+v", tl.Scenes)
	}
}

func TestRenderSegments(t *testing.T) {
	cfg := testConfig(t, "outro")
	cfg.Output = filepath.Join(cfg.OutputDir, "final.mp4")
	enc := &fakeEncoder{}

	res, err := NewProject(cfg, enc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(enc.opened) != 1 || len(enc.joined) != 1 || enc.final != cfg.Output {
		t.Errorf("segments opened %v, joined %v into %s", enc.opened, enc.joined, enc.final)
	}
	if !enc.segments[0].closed {
		t.Error("segment was not closed")
	}
	if enc.frames != res.Frames || res.Frames == 0 {
		t.Errorf("encoder got %d frames, report says %d", enc.frames, res.Frames)
	}
	if _, err := os.Stat(res.Timeline); err != nil {
		t.Errorf("timeline next to the video missing: %v", err)
	}
}

func TestUnknownSceneFailsBeforeRendering(t *testing.T) {
	cfg := testConfig(t, "palindrome", "fourier")
	enc := &fakeEncoder{}

	_, err := NewProject(cfg, enc).Run(context.Background())
	if !errors.Is(err, scenes.ErrUnknownScene) {
		t.Fatalf("expected ErrUnknownScene, got %v", err)
	}
	if len(enc.opened) != 0 {
		t.Error("nothing should be rendered")
	}
}

func TestLeakyScriptFailsBeforeRendering(t *testing.T) {
	cfg := testConfig(t, "outro")
	cfg.Script = filepath.Join(cfg.OutputDir, "leak.lua")
	src := `local s = Scene.new("leak")
s:fade_in(s:dot("d"))
return s`
	if err := os.WriteFile(cfg.Script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	enc := &fakeEncoder{}

	_, err := NewProject(cfg, enc).Run(context.Background())
	var leak *director.LeakError
	if !errors.As(err, &leak) {
		t.Fatalf("expected LeakError, got %v", err)
	}
	if len(enc.opened) != 0 {
		t.Error("outro must not render when a later scene is invalid")
	}

	cfg.SweepLeaks = true
	cfg.DryRun = true
	if _, err := NewProject(cfg, enc).Run(context.Background()); err != nil {
		t.Errorf("sweep policy should accept the script: %v", err)
	}
}

func TestEncoderFailureAborts(t *testing.T) {
	cfg := testConfig(t, "outro")
	enc := &fakeEncoder{openErr: errors.New("no ffmpeg")}

	_, err := NewProject(cfg, enc).Run(context.Background())
	if !errors.Is(err, director.ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}
}

func TestCleanName(t *testing.T) {
	if got := cleanName("my scene/v2"); got != "my_scene_v2" {
		t.Errorf("cleanName = %q", got)
	}
}
