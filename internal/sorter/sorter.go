package sorter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/marksheet-sorter/internal/imaging"
	"github.com/ironsheep/marksheet-sorter/internal/logger"
	"github.com/ironsheep/marksheet-sorter/internal/mark"
	"github.com/ironsheep/marksheet-sorter/internal/settings"
)

// DefaultUnmarkedDir names the folder part used for categories without an
// accepted mark.
const DefaultUnmarkedDir = "unclassified"

// Config describes one sorting run.
type Config struct {
	// Settings holds the sheet layout and reader parameters. Required.
	Settings *settings.Settings

	// InputDir is searched recursively for sheets. Required.
	InputDir string

	// OutputDir receives the sorted copies. Defaults to InputDir + "_sorted".
	// It must not lie inside InputDir.
	OutputDir string

	// Ext limits the input to files with this extension. Empty reads all.
	Ext string

	// FitPath is a blank reference sheet used for calibration when the
	// settings enable fitting.
	FitPath string

	// BaselinePath loads a saved baseline instead of fitting.
	BaselinePath string

	// SaveBaselinePath writes the baseline in use after calibration.
	SaveBaselinePath string

	// Workers bounds concurrent reads. Defaults to runtime.NumCPU().
	Workers int

	// CSVPath enables the per-sheet CSV log.
	CSVPath string

	// Encoding is the CSV encoding: "utf-8" (default) or "shift_jis".
	Encoding string

	// UnmarkedDir replaces unselected categories in folder names.
	// Defaults to DefaultUnmarkedDir.
	UnmarkedDir string
}

// Summary reports what a run did.
type Summary struct {
	RunID     string         `json:"run_id"`
	Total     int            `json:"total"`
	Sorted    int            `json:"sorted"`
	Skipped   int            `json:"skipped"`
	PerFolder map[string]int `json:"per_folder"`
}

// outcome is the result for one input file.
type outcome struct {
	path    string
	rel     string
	folder  string
	result  mark.Result
	skipped bool
}

func (c *Config) applyDefaults() error {
	if c.Settings == nil {
		return fmt.Errorf("%w: settings are required", mark.ErrConfiguration)
	}
	if c.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	c.InputDir = filepath.Clean(c.InputDir)
	if c.OutputDir == "" {
		c.OutputDir = c.InputDir + "_sorted"
	}
	c.OutputDir = filepath.Clean(c.OutputDir)
	if rel, err := filepath.Rel(c.InputDir, c.OutputDir); err == nil &&
		(rel == "." || !strings.HasPrefix(rel, "..")) {
		return fmt.Errorf("output directory %s must not be inside input directory %s", c.OutputDir, c.InputDir)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.UnmarkedDir == "" {
		c.UnmarkedDir = DefaultUnmarkedDir
	}
	if _, err := csvEncoder(c.Encoding); err != nil {
		return err
	}
	return nil
}

// Run sorts every sheet under cfg.InputDir.
//
// Files that do not decode as images are skipped and counted. Any other
// failure, including a read error from the mark reader or a cancelled ctx,
// stops the run; copies made so far are left in place.
func Run(ctx context.Context, cfg Config) (*Summary, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := logger.WithFields(logrus.Fields{
		"component": "sorter",
		"run_id":    runID,
	})

	reader, err := cfg.Settings.Reader()
	if err != nil {
		return nil, err
	}
	if err := calibrate(reader, &cfg, log); err != nil {
		return nil, err
	}

	paths, err := imaging.ListImages(cfg.InputDir, cfg.Ext)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"input":   cfg.InputDir,
		"output":  cfg.OutputDir,
		"files":   len(paths),
		"workers": cfg.Workers,
	}).Info("sorting started")

	outcomes := make([]outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := sortOne(reader, &cfg, path)
			if err != nil {
				return err
			}
			if o.skipped {
				log.WithField("path", path).Debug("not an image, skipped")
			} else {
				log.WithFields(logrus.Fields{"path": o.rel, "folder": o.folder}).Infof("%d/%d sorted", i+1, len(paths))
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{RunID: runID, Total: len(paths), PerFolder: make(map[string]int)}
	for _, o := range outcomes {
		if o.skipped {
			summary.Skipped++
			continue
		}
		summary.Sorted++
		summary.PerFolder[o.folder]++
	}

	if cfg.CSVPath != "" {
		if err := writeLog(&cfg, outcomes); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"sorted":  summary.Sorted,
		"skipped": summary.Skipped,
		"folders": len(summary.PerFolder),
	}).Info("sorting finished")
	return summary, nil
}

// calibrate loads or fits the reader baseline as cfg asks.
func calibrate(reader *mark.Reader, cfg *Config, log *logrus.Entry) error {
	switch {
	case cfg.BaselinePath != "":
		baseline, err := settings.LoadBaseline(cfg.BaselinePath)
		if err != nil {
			return err
		}
		reader.SetBaseline(baseline)
		log.WithField("baseline", cfg.BaselinePath).Info("baseline loaded")
	case cfg.FitPath != "" && cfg.Settings.Fit:
		sheet, err := imaging.LoadGray(cfg.FitPath, cfg.Settings.ResizeRatio)
		if err != nil {
			return fmt.Errorf("failed to load fit sheet: %w", err)
		}
		if err := reader.Fit(sheet.Image); err != nil {
			return fmt.Errorf("failed to fit %s: %w", cfg.FitPath, err)
		}
		log.WithField("fit", cfg.FitPath).Info("reader fitted")
	case cfg.FitPath != "":
		log.WithField("fit", cfg.FitPath).Warn("sheet_fit is disabled; fit sheet ignored")
	}

	if cfg.SaveBaselinePath != "" {
		if !reader.Fitted() {
			return fmt.Errorf("no baseline to save: reader is not calibrated")
		}
		if err := settings.SaveBaseline(cfg.SaveBaselinePath, reader.Baseline()); err != nil {
			return err
		}
	}
	return nil
}

func sortOne(reader *mark.Reader, cfg *Config, path string) (outcome, error) {
	o := outcome{path: path}

	sheet, err := imaging.LoadGray(path, cfg.Settings.ResizeRatio)
	if errors.Is(err, imaging.ErrUnsupportedFormat) {
		o.skipped = true
		return o, nil
	}
	if err != nil {
		return o, err
	}

	o.result, err = reader.Read(sheet.Image)
	if err != nil {
		return o, fmt.Errorf("%s: %w", path, err)
	}

	o.rel, err = filepath.Rel(cfg.InputDir, path)
	if err != nil {
		return o, err
	}
	o.folder = FolderName(reader.Categories(), o.result, cfg.UnmarkedDir)

	if err := copyFile(path, filepath.Join(cfg.OutputDir, o.folder, o.rel)); err != nil {
		return o, err
	}
	return o, nil
}

// FolderName joins the selected value of each category with "_". Categories
// without a selection contribute unmarked. Path separators in value names
// are replaced so each sheet lands exactly one level below the output.
func FolderName(categories []string, result mark.Result, unmarked string) string {
	parts := make([]string, len(categories))
	for i, category := range categories {
		value, ok := result.Selected(category)
		if !ok {
			value = unmarked
		}
		parts[i] = strings.NewReplacer("/", "-", `\`, "-").Replace(value)
	}
	name := strings.Join(parts, "_")
	// "." and ".." would resolve to the output directory or its parent.
	if name == "." || name == ".." {
		name = strings.Repeat("-", len(name))
	}
	return name
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// writeLog writes one CSV row per sorted sheet in input order. Columns follow
// the category order of the settings file.
func writeLog(cfg *Config, outcomes []outcome) error {
	categories := cfg.Settings.CategoryNames()
	header := append([]string{"path"}, categories...)

	rw, err := newResultWriter(cfg.CSVPath, cfg.Encoding, header)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.skipped {
			continue
		}
		row := make([]string, 0, len(header))
		row = append(row, filepath.ToSlash(o.rel))
		for _, category := range categories {
			row = append(row, o.result[category])
		}
		if err := rw.Write(row); err != nil {
			rw.Close()
			return err
		}
	}
	return rw.Close()
}
