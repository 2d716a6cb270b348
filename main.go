package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/df07/go-tiled-raytracer/pkg/renderer"
	"github.com/df07/go-tiled-raytracer/pkg/scene"
)

// options holds the command line settings. Zero sizes and seed fall back to
// the scene's own values.
type options struct {
	Scene      string
	Width      int
	Height     int
	Samples    int
	Tiles      int
	Depth      int
	Workers    int
	Seed       int64
	Out        string
	ConfigPath string
	Help       bool
}

// fileConfig is the JSON configuration accepted by -config
type fileConfig struct {
	Scene   *string `json:"scene"`
	Width   *int    `json:"width"`
	Height  *int    `json:"height"`
	Samples *int    `json:"samples"`
	Tiles   *int    `json:"tiles"`
	Depth   *int    `json:"depth"`
	Workers *int    `json:"workers"`
	Seed    *int64  `json:"seed"`
	Out     *string `json:"out"`
}

func main() {
	opts, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}

	if opts.Help {
		printHelp(fs)
		return
	}

	if err := run(opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args and merges an optional JSON config file. Flags given
// explicitly on the command line take precedence over the file.
func parseFlags(args []string) (options, *flag.FlagSet, error) {
	defaults := renderer.DefaultRenderConfig()
	var opts options

	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Scene, "scene", "default", "Scene name (see -help for the list)")
	fs.IntVar(&opts.Width, "width", 0, "Image width in pixels (0 = scene default)")
	fs.IntVar(&opts.Height, "height", 0, "Image height in pixels (0 = scene default)")
	fs.IntVar(&opts.Samples, "samples", defaults.SamplesPerPixel, "Samples per pixel")
	fs.IntVar(&opts.Tiles, "tiles", defaults.TileCount, "Number of tiles; must evenly divide the image")
	fs.IntVar(&opts.Depth, "depth", defaults.MaxDepth, "Maximum ray bounce depth")
	fs.IntVar(&opts.Workers, "workers", 0, "Number of parallel workers (0 = physical core count)")
	fs.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 = derived from the scene)")
	fs.StringVar(&opts.Out, "out", "", "Output PNG path (default output/<scene>/render_<timestamp>.png)")
	fs.StringVar(&opts.ConfigPath, "config", "", "JSON configuration file")
	fs.BoolVar(&opts.Help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}

	if opts.ConfigPath != "" {
		config, err := loadFileConfig(opts.ConfigPath)
		if err != nil {
			return opts, fs, err
		}

		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		applyFileConfig(&opts, config, explicit)
	}

	return opts, fs, nil
}

// loadFileConfig reads a JSON configuration file
func loadFileConfig(path string) (fileConfig, error) {
	var config fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// applyFileConfig copies every value present in the file into opts unless the
// matching flag was set explicitly
func applyFileConfig(opts *options, config fileConfig, explicit map[string]bool) {
	setString := func(name string, dst *string, src *string) {
		if src != nil && !explicit[name] {
			*dst = *src
		}
	}
	setInt := func(name string, dst *int, src *int) {
		if src != nil && !explicit[name] {
			*dst = *src
		}
	}

	setString("scene", &opts.Scene, config.Scene)
	setInt("width", &opts.Width, config.Width)
	setInt("height", &opts.Height, config.Height)
	setInt("samples", &opts.Samples, config.Samples)
	setInt("tiles", &opts.Tiles, config.Tiles)
	setInt("depth", &opts.Depth, config.Depth)
	setInt("workers", &opts.Workers, config.Workers)
	setString("out", &opts.Out, config.Out)
	if config.Seed != nil && !explicit["seed"] {
		opts.Seed = *config.Seed
	}
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Tiled Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, info := range scene.List() {
		fmt.Printf("  %-12s - %s\n", info.ID, info.Description)
	}
	fmt.Println()
	fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
	fmt.Println("Press Ctrl+C to stop early and save the partial image.")
}

// createScene creates the named scene
func createScene(name string) (*scene.Scene, error) {
	if name == "" {
		return nil, errors.New("no scene specified")
	}
	return scene.New(name)
}

// renderConfig resolves the render configuration for a scene
func renderConfig(opts options, s *scene.Scene) renderer.RenderConfig {
	config := renderer.RenderConfig{
		Width:           opts.Width,
		Height:          opts.Height,
		SamplesPerPixel: opts.Samples,
		TileCount:       opts.Tiles,
		MaxDepth:        opts.Depth,
		NumWorkers:      opts.Workers,
		Seed:            opts.Seed,
	}
	if config.Width == 0 {
		config.Width = s.Width
	}
	if config.Height == 0 {
		config.Height = s.Height
	}
	if config.Seed == 0 {
		config.Seed = s.Seed()
	}
	return config
}

func run(opts options) error {
	fmt.Println("Starting Tiled Raytracer...")

	selectedScene, err := createScene(opts.Scene)
	if err != nil {
		return err
	}
	config := renderConfig(opts, selectedScene)

	camera, err := selectedScene.NewCamera(config.Width, config.Height)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	fmt.Printf("Using %s scene (%d objects) on %s\n", selectedScene.Name, selectedScene.World.Len(), renderer.CPUModel())
	if required, available, err := renderer.CheckMemory(config); err != nil {
		fmt.Printf("Warning: %v\n", err)
	} else if required > available {
		fmt.Printf("Warning: render needs %d MB but only %d MB are available\n", required>>20, available>>20)
	}

	filename := opts.Out
	if filename == "" {
		outputDir, err := createOutputDir(selectedScene.Name)
		if err != nil {
			return err
		}
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	}

	// Ctrl+C stops the render cooperatively; the partial image is still saved
	var cancel atomic.Bool
	stop := watchSignals(&cancel)
	defer stop()

	progress := newProgressPrinter(os.Stdout, config.Width*config.Height)
	r := renderer.NewRenderer(selectedScene.World, camera, config, renderer.NewDefaultLogger())
	img, stats, err := r.Render(context.Background(), &cancel, progress)
	if err != nil {
		return err
	}

	fmt.Printf("Rendered %d of %d pixels with %d workers in %v\n",
		stats.RenderedPixels, stats.TotalPixels, stats.Workers, stats.Duration)

	if err := savePNG(filename, img); err != nil {
		return err
	}
	fmt.Printf("Render saved as %s\n", filename)
	return nil
}

// watchSignals sets the cancel flag on SIGINT or SIGTERM
func watchSignals(cancel *atomic.Bool) (stop func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-signals:
			fmt.Printf("\nReceived %v, finishing current pixels...\n", sig)
			cancel.Store(true)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}

// createOutputDir creates output/<sceneName> and returns its path
func createOutputDir(sceneName string) (string, error) {
	outputDir := filepath.Join("output", sceneName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	return outputDir, nil
}

func savePNG(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("error saving PNG: %w", err)
	}
	return nil
}

// progressPrinter prints overall progress whenever it moves by a whole percent
type progressPrinter struct {
	*renderer.ProgressCounter
	out         io.Writer
	lastPercent int
}

func newProgressPrinter(out io.Writer, totalPixels int) *progressPrinter {
	p := &progressPrinter{out: out, lastPercent: -1}
	p.ProgressCounter = renderer.NewProgressCounter(totalPixels, p.update)
	return p
}

func (p *progressPrinter) update(done, total int) {
	fraction := float64(done) / float64(total)
	percent := int(fraction * 100)
	if percent == p.lastPercent {
		return
	}
	p.lastPercent = percent
	fmt.Fprintf(p.out, "[PROGRESS] %.2f%%\n", fraction*100)
}
