package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/explainer/internal/config"
	"github.com/ivlev/explainer/internal/engine"
	"github.com/ivlev/explainer/internal/scenes"
	"github.com/ivlev/explainer/internal/system"
	"github.com/ivlev/explainer/internal/video"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	cfg.BuildVersion = version

	if cfg.List {
		for _, name := range scenes.Names() {
			d, _ := scenes.Lookup(name)
			fmt.Printf("%-24s %s\n", d.Name, d.Description)
		}
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.DryRun {
		if cfg.Encoder == "" {
			cfg.Encoder = system.GetBestH264Encoder(ctx)
			if cfg.Encoder != system.SoftwareEncoder {
				fmt.Printf("[*] Hardware acceleration detected: %s\n", cfg.Encoder)
			}
		}
		if cfg.Quality == 0 {
			cfg.Quality = config.DefaultQuality(cfg.Encoder)
		}
	}

	ve := &video.FFmpegEncoder{
		Encoder: cfg.Encoder,
		Quality: cfg.Quality,
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Buffer:  cfg.FPS,
	}

	project := engine.NewProject(&cfg, ve)
	res, err := project.Run(ctx)
	if err != nil {
		stop()
		log.Fatalf("[-] Project error: %v", err)
	}

	if cfg.DryRun {
		fmt.Printf("[+++] Dry run OK: %d scenes, %d frames, %.2fs\n", len(res.Reports), res.Frames, res.Duration)
		return
	}
	fmt.Printf("[+++] Success! Result: %s\n", res.Output)
}
