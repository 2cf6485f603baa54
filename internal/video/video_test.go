package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestBuildFFmpegArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality []string
	}{
		{"libx264", []string{"-crf", "23", "-preset", "medium"}},
		{"", []string{"-crf", "23", "-preset", "medium"}},
		{"h264_nvenc", []string{"-cq", "23"}},
		{"h264_videotoolbox", []string{"-b:v", "2300k"}},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			e := &FFmpegEncoder{Encoder: tt.encoder, Quality: 23, Width: 1280, Height: 720, FPS: 30}
			args := e.buildFFmpegArgs("out.mp4")

			if args[len(args)-1] != "out.mp4" {
				t.Errorf("output must be last, got %v", args)
			}
			joined := strings.Join(args, " ")
			for _, want := range []string{"-f rawvideo", "-pixel_format rgba", "-video_size 1280x720", "-framerate 30", "-i -", "-pix_fmt yuv420p"} {
				if !strings.Contains(joined, want) {
					t.Errorf("args %q missing %q", joined, want)
				}
			}
			if !strings.Contains(joined, strings.Join(tt.quality, " ")) {
				t.Errorf("args %q missing quality %v", joined, tt.quality)
			}
			if i := slices.Index(args, "-c:v"); i < 0 || args[i+1] != e.encoder() {
				t.Errorf("encoder not selected: %v", args)
			}
		})
	}
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "inputs.txt")
	segs := []string{filepath.Join(dir, "s0.mp4"), filepath.Join(dir, "it's.mp4")}

	if err := writeConcatList(list, segs); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(list)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), data)
	}
	if lines[0] != "file '"+segs[0]+"'" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], `it'\''s.mp4`) {
		t.Errorf("quote not escaped: %q", lines[1])
	}
}

func TestConcatenateNothing(t *testing.T) {
	e := &FFmpegEncoder{}
	if err := e.Concatenate(context.Background(), nil, "out.mp4", t.TempDir()); !errors.Is(err, ErrNoSegments) {
		t.Errorf("expected ErrNoSegments, got %v", err)
	}
}

func TestOpenMissingBinary(t *testing.T) {
	e := &FFmpegEncoder{Binary: filepath.Join(t.TempDir(), "no-ffmpeg"), Width: 4, Height: 4, FPS: 1}
	if _, err := e.Open(context.Background(), "out.mp4"); err == nil {
		t.Error("expected start error")
	}
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, img); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), img.Pix) {
		t.Errorf("packed frame written incorrectly")
	}

	sub := img.SubImage(image.Rect(1, 0, 2, 2)).(*image.RGBA)
	buf.Reset()
	if err := writeRawRGBA(&buf, sub); err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte{}, img.Pix[4:8]...), img.Pix[12:16]...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("sub image = %v, want %v", buf.Bytes(), want)
	}
}
