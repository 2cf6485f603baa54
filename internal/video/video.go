// Package video encodes rendered frames with an ffmpeg subprocess and joins
// the per-scene segments into the final file.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/explainer/internal/system"
)

var ErrNoSegments = errors.New("no segments to concatenate")

// Segment receives the frames of one scene. Close flushes the encoder and
// reports its exit status.
type Segment interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

type VideoEncoder interface {
	Open(ctx context.Context, path string) (Segment, error)
	Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string) error
}

// FFmpegEncoder feeds raw RGBA frames to ffmpeg over stdin.
type FFmpegEncoder struct {
	Binary        string
	Encoder       string
	Quality       int
	Width, Height int
	FPS           int
	// Buffer is the number of frames queued ahead of the encoder.
	Buffer int
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "ffmpeg"
}

func (e *FFmpegEncoder) encoder() string {
	if e.Encoder != "" {
		return e.Encoder
	}
	return system.SoftwareEncoder
}

// Open starts ffmpeg writing to path. Frames are written by a separate
// goroutine; if either it or ffmpeg fails the other is cancelled.
func (e *FFmpegEncoder) Open(ctx context.Context, path string) (Segment, error) {
	g, gctx := errgroup.WithContext(ctx)
	cmd := exec.CommandContext(gctx, e.binary(), e.buildFFmpegArgs(path)...)
	s := &Stream{
		path:   path,
		ctx:    gctx,
		group:  g,
		frames: make(chan *image.RGBA, max(e.Buffer, 1)),
	}
	cmd.Stdout = &s.log
	cmd.Stderr = &s.log

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	g.Go(func() error {
		defer stdin.Close()
		return s.pump(stdin)
	})
	g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg wait error: %w", err)
		}
		return nil
	})
	return s, nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(videoPath string) []string {
	args := []string{
		"-y",
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.Width, e.Height),
		"-framerate", strconv.Itoa(e.FPS),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", e.encoder(),
	}
	args = append(args, qualityArgs(e.encoder(), e.Quality)...)
	return append(args, videoPath)
}

// qualityArgs maps the quality knob onto each encoder family's own rate
// control.
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		bitrate := quality * 100 // kbit/s, 75 -> 7.5 Mbit/s
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

// Stream is an open ffmpeg segment.
type Stream struct {
	path   string
	ctx    context.Context
	group  *errgroup.Group
	frames chan *image.RGBA
	log    bytes.Buffer
	once   sync.Once
	err    error
}

func (s *Stream) pump(w io.Writer) error {
	for frame := range s.frames {
		err := writeRawRGBA(w, frame)
		system.PutImage(frame)
		if err != nil {
			return fmt.Errorf("write raw error: %w", err)
		}
	}
	return nil
}

// WriteFrame queues frame for encoding and takes ownership of it.
func (s *Stream) WriteFrame(frame *image.RGBA) error {
	select {
	case <-s.ctx.Done():
		system.PutImage(frame)
		return fmt.Errorf("segment %s: %w", filepath.Base(s.path), context.Cause(s.ctx))
	default:
	}
	select {
	case s.frames <- frame:
		return nil
	case <-s.ctx.Done():
		system.PutImage(frame)
		return fmt.Errorf("segment %s: %w", filepath.Base(s.path), context.Cause(s.ctx))
	}
}

// Close waits for ffmpeg to finish the file. It is safe to call twice.
func (s *Stream) Close() error {
	s.once.Do(func() {
		close(s.frames)
		if err := s.group.Wait(); err != nil {
			s.err = fmt.Errorf("segment %s: %w, output: %s", filepath.Base(s.path), err, strings.TrimSpace(s.log.String()))
		}
	})
	return s.err
}

// writeRawRGBA writes the pixels of a tightly packed frame.
func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	if img.Stride == b.Dx()*4 {
		_, err := w.Write(img.Pix[:b.Dx()*b.Dy()*4])
		return err
	}
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Concatenate joins the segments with the concat demuxer without
// re-encoding.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string) error {
	if len(segmentPaths) == 0 {
		return ErrNoSegments
	}
	concatFilePath := filepath.Join(tmpDir, "inputs.txt")
	if err := writeConcatList(concatFilePath, segmentPaths); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, e.binary(), "-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", concatFilePath,
		"-c", "copy", finalPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %w, output: %s", err, string(out))
	}
	return nil
}

func writeConcatList(path string, segmentPaths []string) error {
	var b strings.Builder
	for _, p := range segmentPaths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve segment %s: %w", p, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(absPath, "'", `'\''`))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
