// Command layerlab renders layered drawings, grades challenge attempts and
// derives challenge targets from reference images.
//
//	layerlab [-config file] [-debug] render -in drawing.json -out drawing.png
//	layerlab score -target target.json -attempt drawing.json [-v]
//	layerlab target -image ref.png -out target.json [-preview target.png] [-layers 5]
//	layerlab session [-script file]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/setanarut/layerlab"
	"github.com/setanarut/layerlab/logger"
	"github.com/setanarut/layerlab/store"
	"github.com/setanarut/layerlab/utils"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: layerlab [-config file] [-debug] render|score|target|session [flags]")
	flag.PrintDefaults()
}

func main() {
	configFile := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, cfgErr := LoadConfig(*configFile)
	l, err := logger.New(*debug || cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "layerlab: logger:", err)
		os.Exit(1)
	}
	defer l.Sync() //nolint:errcheck
	zap.ReplaceGlobals(l)
	if cfgErr != nil {
		l.Fatal("load config", zap.String("path", *configFile), zap.Error(cfgErr))
	}

	ctx := logger.NewContext(context.Background(), l)
	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:], os.Stdin, os.Stdout); err != nil {
		l.Error(flag.Arg(0)+" failed", zap.Error(err))
		l.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, cmd string, args []string, stdin io.Reader, stdout io.Writer) error {
	switch cmd {
	case "render":
		return renderCmd(ctx, cfg, args)
	case "score":
		return scoreCmd(cfg, args, stdout)
	case "target":
		return targetCmd(ctx, cfg, args)
	case "session":
		return sessionCmd(ctx, cfg, args, stdin, stdout)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func renderCmd(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	in := fs.String("in", "", "drawing to render (JSON)")
	out := fs.String("out", "out.png", "PNG output")
	width := fs.Int("width", cfg.Canvas.Width, "canvas width")
	height := fs.Int("height", cfg.Canvas.Height, "canvas height")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("render: -in is required")
	}
	layers, err := store.Load(*in)
	if err != nil {
		return err
	}
	img := cfg.Compositor().Render(layers, *width, *height)
	if err := utils.SaveImage(img, *out); err != nil {
		return err
	}
	logger.L(ctx).Info("rendered",
		zap.String("in", *in),
		zap.String("out", *out),
		zap.Int("layers", len(layers)))
	return nil
}

func scoreCmd(cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	targetPath := fs.String("target", "", "challenge target (JSON)")
	attemptPath := fs.String("attempt", "", "attempt to grade (JSON)")
	verbose := fs.Bool("v", false, "print per-layer breakdown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *targetPath == "" || *attemptPath == "" {
		return fmt.Errorf("score: -target and -attempt are required")
	}
	target, err := store.Load(*targetPath)
	if err != nil {
		return err
	}
	attempt, err := store.Load(*attemptPath)
	if err != nil {
		return err
	}
	printScore(stdout, layerlab.Compare(target, attempt), cfg.PassThreshold, *verbose)
	return nil
}

func targetCmd(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("target", flag.ContinueOnError)
	imagePath := fs.String("image", "", "reference image")
	out := fs.String("out", "target.json", "target output (JSON)")
	preview := fs.String("preview", "", "optional PNG preview of the target")
	paletteOut := fs.String("palette", "", "optional PNG of the extracted palette")
	k := fs.Int("layers", cfg.Target.Layers, "palette size, an upper bound on the layer count")
	method := fs.String("method", cfg.Target.Method, "palette method: dominantcolor or kmeans")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		return fmt.Errorf("target: -image is required")
	}
	pm, err := utils.ParsePaletteMethod(*method)
	if err != nil {
		return err
	}
	img, err := utils.ReadImage(*imagePath)
	if err != nil {
		return err
	}
	img = utils.FitImage(img, cfg.Canvas.Width, cfg.Canvas.Height)

	palette := utils.ExtractPalette(img, *k, pm)
	utils.SortPaletteByBrightness(palette)
	tb := layerlab.NewTargetBuilder(img, palette)
	tb.Build(cfg.TargetOptions())
	layers := tb.Layers()
	if len(layers) == 0 {
		return fmt.Errorf("target: no layers found in %s", *imagePath)
	}
	if err := store.Save(*out, layers); err != nil {
		return err
	}
	if *preview != "" {
		if err := utils.SaveImage(tb.Reconstruct(), *preview); err != nil {
			return err
		}
	}
	if *paletteOut != "" {
		if err := utils.SavePalette(palette, 64, *paletteOut); err != nil {
			return err
		}
	}
	logger.L(ctx).Info("target built",
		zap.String("image", *imagePath),
		zap.Stringer("method", pm),
		zap.Int("palette", len(palette)),
		zap.Int("layers", len(layers)),
		zap.String("out", *out))
	return nil
}

func sessionCmd(ctx context.Context, cfg Config, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	script := fs.String("script", "", "command script (default stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := stdin
	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return newSession(cfg, stdout).run(ctx, in)
}
