package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ironsheep/marksheet-sorter/internal/logger"
	"github.com/ironsheep/marksheet-sorter/internal/server"
	"github.com/ironsheep/marksheet-sorter/internal/settings"
	"github.com/ironsheep/marksheet-sorter/internal/sorter"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// errUsage reports a command line problem; usage has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			logger.WithError(err).Error("marksort failed")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "marksort %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return nil
		case "--help", "-h", "help":
			printHelp(stdout)
			return nil
		case "serve":
			logger.WithField("version", Version).Debug("starting MCP server")
			return server.New(Version).Run(ctx)
		}
	}

	logger.UseText()
	return sortCommand(ctx, args, stdout, stderr)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "marksort - read mark sheets and sort them into folders")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  marksort -settings sheet.yaml -input scans/ [options]")
	fmt.Fprintln(w, "  marksort serve")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve            Run the MCP server over stdin/stdout")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sort options:")
	newSortFlags(w, &sortOptions{}).PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", logger.LevelEnv)
}

type sortOptions struct {
	settingsPath string
	input        string
	output       string
	ext          string
	fit          string
	workers      int
	csvPath      string
	csvEncoding  string
	saveBaseline string
	loadBaseline string
	unmarked     string
}

func newSortFlags(output io.Writer, o *sortOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("marksort", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.settingsPath, "settings", "", "YAML settings file describing the sheet (required)")
	fs.StringVar(&o.input, "input", "", "directory of scanned sheets (required)")
	fs.StringVar(&o.output, "output", "", "destination directory (default <input>_sorted)")
	fs.StringVar(&o.ext, "ext", "", "only read files with this extension, e.g. png")
	fs.StringVar(&o.fit, "fit", "", "blank reference sheet to calibrate against")
	fs.IntVar(&o.workers, "workers", runtime.NumCPU(), "concurrent reads")
	fs.StringVar(&o.csvPath, "csv", "", "write a CSV log of every sheet to this file")
	fs.StringVar(&o.csvEncoding, "csv-encoding", sorter.EncodingUTF8, "CSV encoding: utf-8 or shift_jis")
	fs.StringVar(&o.saveBaseline, "save-baseline", "", "save the calibration baseline to this YAML file")
	fs.StringVar(&o.loadBaseline, "load-baseline", "", "calibrate from a saved baseline YAML file")
	fs.StringVar(&o.unmarked, "unmarked", sorter.DefaultUnmarkedDir, "folder name used for categories without a mark")
	return fs
}

func sortCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var o sortOptions
	fs := newSortFlags(stderr, &o)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	if o.settingsPath == "" || o.input == "" {
		fmt.Fprintln(stderr, "-settings and -input are required (see marksort --help)")
		return errUsage
	}

	cfg, err := settings.Load(o.settingsPath)
	if err != nil {
		return err
	}

	summary, err := sorter.Run(ctx, sorter.Config{
		Settings:         cfg,
		InputDir:         o.input,
		OutputDir:        o.output,
		Ext:              o.ext,
		FitPath:          o.fit,
		BaselinePath:     o.loadBaseline,
		SaveBaselinePath: o.saveBaseline,
		Workers:          o.workers,
		CSVPath:          o.csvPath,
		Encoding:         o.csvEncoding,
		UnmarkedDir:      o.unmarked,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
