// Package engine runs a whole explainer project: it resolves the requested
// scenes, validates all of them, renders each into a segment and joins the
// segments into one video.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ivlev/explainer/internal/config"
	"github.com/ivlev/explainer/internal/director"
	"github.com/ivlev/explainer/internal/renderer"
	"github.com/ivlev/explainer/internal/scene"
	"github.com/ivlev/explainer/internal/scenes"
	"github.com/ivlev/explainer/internal/script"
	"github.com/ivlev/explainer/internal/system"
	"github.com/ivlev/explainer/internal/video"
)

// Job is one scene ready to run.
type Job struct {
	Name  string
	Steps []scene.Step
}

// Result describes a finished run.
type Result struct {
	Output   string
	Timeline string
	Reports  []director.Report
	Frames   int
	Duration float64
	Elapsed  time.Duration
}

type Project struct {
	Config  *config.Config
	Encoder video.VideoEncoder
	Logger  *log.Logger
}

func NewProject(cfg *config.Config, enc video.VideoEncoder) *Project {
	return &Project{Config: cfg, Encoder: enc}
}

func (p *Project) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

func (p *Project) director(r director.Renderer) *director.Director {
	d := director.New(r, p.Config.FPS)
	d.Logger = p.Logger
	d.Verbose = p.Config.Verbose
	if p.Config.SweepLeaks {
		d.Policy = director.LeakSweep
	}
	return d
}

// Resolve builds the steps of every requested scene, catalog scenes first
// and the script last.
func (p *Project) Resolve() ([]Job, error) {
	var jobs []Job
	for _, name := range p.Config.Scenes {
		steps, err := scenes.Build(name, scenes.Options{Link: p.Config.Link})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{Name: name, Steps: steps})
	}
	if p.Config.Script != "" {
		sc, err := script.LoadFile(p.Config.Script)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{Name: sc.Name, Steps: sc.Steps})
	}
	if len(jobs) == 0 {
		return nil, config.ErrNoInput
	}
	return jobs, nil
}

// Run executes the project. Every scene is planned before the first frame
// is rendered, so an invalid scene fails the run without output.
func (p *Project) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	cfg := p.Config

	jobs, err := p.Resolve()
	if err != nil {
		return nil, err
	}
	check := p.director(&renderer.Null{FPS: cfg.FPS})
	for i := range jobs {
		steps, err := check.Prepare(jobs[i].Name, jobs[i].Steps)
		if err != nil {
			return nil, fmt.Errorf("scene %s rejected: %w", jobs[i].Name, err)
		}
		jobs[i].Steps = steps
	}

	fmt.Println("--- [PROJECT: EXPLAINER] ---")
	fmt.Printf("[*] Scenes: %s\n", jobNames(jobs))
	fmt.Printf("[*] Resolution: %dx%d @ %d FPS", cfg.Width, cfg.Height, cfg.FPS)
	if cfg.DryRun {
		fmt.Print(" | dry run")
	} else {
		fmt.Printf(" | Encoder: %s (quality %d)", cfg.Encoder, cfg.Quality)
	}
	fmt.Println("\n----------------------------")

	res := &Result{}
	if cfg.DryRun {
		err = p.dryRun(ctx, jobs, res)
	} else {
		err = p.render(ctx, jobs, res)
	}
	if err != nil {
		return res, err
	}

	if res.Timeline = p.timelinePath(res.Output, startTime); res.Timeline != "" {
		if err := os.MkdirAll(filepath.Dir(res.Timeline), 0755); err != nil {
			return res, fmt.Errorf("create timeline dir: %w", err)
		}
		if err := director.WriteTimeline(director.NewTimeline(res.Reports), res.Timeline); err != nil {
			return res, err
		}
		fmt.Printf("[*] Timeline: %s\n", res.Timeline)
	}

	res.Elapsed = time.Since(startTime)
	if cfg.ShowStats {
		p.report(res)
	}
	return res, nil
}

func (p *Project) dryRun(ctx context.Context, jobs []Job, res *Result) error {
	d := p.director(&renderer.Null{FPS: p.Config.FPS})
	for _, job := range jobs {
		rep, err := d.RunScene(ctx, job.Name, job.Steps)
		if err != nil {
			return err
		}
		res.add(rep)
	}
	return nil
}

func (p *Project) render(ctx context.Context, jobs []Job, res *Result) error {
	tempDir, err := os.MkdirTemp("", "explainer_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	var segments []string
	raster := renderer.NewRaster(p.Config.Width, p.Config.Height, p.Config.FPS, func(name string) (renderer.FrameSink, error) {
		segPath := filepath.Join(tempDir, fmt.Sprintf("s%d_%s.mp4", len(segments), cleanName(name)))
		seg, err := p.Encoder.Open(ctx, segPath)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segPath)
		return seg, nil
	})

	renderStart := time.Now()
	d := p.director(raster)
	for i, job := range jobs {
		rep, err := d.RunScene(ctx, job.Name, job.Steps)
		if err != nil {
			return err
		}
		res.add(rep)
		fmt.Printf("[>] Ready: %d/%d\n", i+1, len(jobs))
	}
	renderTime := time.Since(renderStart)

	res.Output = p.outputPath(jobs)
	if err := os.MkdirAll(filepath.Dir(res.Output), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	fmt.Println("[*] Concatenating the final video...")
	concatStart := time.Now()
	if err := p.Encoder.Concatenate(ctx, segments, res.Output, tempDir); err != nil {
		return fmt.Errorf("concatenate final video: %w", err)
	}
	if p.Config.Verbose {
		p.logger().Printf("[>] render %.2fs, concat %.2fs", renderTime.Seconds(), time.Since(concatStart).Seconds())
	}
	return nil
}

func (r *Result) add(rep director.Report) {
	r.Reports = append(r.Reports, rep)
	r.Frames += rep.Frames
	r.Duration += rep.Duration
}

func (p *Project) outputPath(jobs []Job) string {
	if p.Config.Output != "" {
		return p.Config.Output
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(p.Config.OutputDir, fmt.Sprintf("%s_%s.mp4", cleanName(jobs[0].Name), timestamp))
}

// timelinePath is the configured path, or one next to the video. Dry runs
// without a configured path write no timeline.
func (p *Project) timelinePath(output string, now time.Time) string {
	if p.Config.Timeline != "" {
		return p.Config.Timeline
	}
	if output == "" {
		return ""
	}
	return director.TimelinePath(output, now)
}

func (p *Project) report(res *Result) {
	fps := 0.0
	if s := res.Elapsed.Seconds(); s > 0 {
		fps = float64(res.Frames) / s
	}
	fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
		"Build: %s\n"+
		"Total Time: %.2fs\n"+
		"Scenes: %d | Frames: %d | Video: %.2fs\n"+
		"Effective FPS: %.2f\n",
		p.Config.BuildVersion, res.Elapsed.Seconds(), len(res.Reports), res.Frames, res.Duration, fps)
	for _, rep := range res.Reports {
		fmt.Printf("  %-24s %6d frames %7.2fs (%d objects)\n", rep.Name, rep.Frames, rep.Duration, rep.Tracked)
	}
	stats, err := system.Sample()
	if err != nil {
		p.logger().Printf("[!] Could not read host stats: %v", err)
	}
	fmt.Printf("Host: %d CPUs | %s\n", runtime.NumCPU(), stats)
	fmt.Println("----------------------------")

	logEntry := fmt.Sprintf("[%s] Build: %s | Scenes: %s | Frames: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		jobNamesFromReports(res.Reports),
		res.Frames,
		res.Elapsed.Seconds(),
		fps,
	)
	if err := os.MkdirAll(p.Config.OutputDir, 0755); err == nil {
		f, err := os.OpenFile(filepath.Join(p.Config.OutputDir, "benchmark.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			f.WriteString(logEntry)
			f.Close()
			return
		}
		p.logger().Printf("[!] Could not write benchmark.log: %v", err)
	}
}

func jobNames(jobs []Job) string {
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}
	return strings.Join(names, ", ")
}

func jobNamesFromReports(reps []director.Report) string {
	names := make([]string, len(reps))
	for i, r := range reps {
		names[i] = r.Name
	}
	return strings.Join(names, ",")
}

func cleanName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
}
