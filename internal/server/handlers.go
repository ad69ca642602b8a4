package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/marksheet-sorter/internal/imaging"
	"github.com/ironsheep/marksheet-sorter/internal/mark"
	"github.com/ironsheep/marksheet-sorter/internal/settings"
	"github.com/ironsheep/marksheet-sorter/internal/sorter"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sheet_load", "sheet_read").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads settings and sheets (sheets through the cache)
//  4. Calls the appropriate imaging/mark/sorter function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sheet Information
	case "sheet_load":
		return s.handleSheetLoad(args)
	case "sheet_layout":
		return s.handleSheetLayout(args)

	// Mark Reading
	case "sheet_read":
		return s.handleSheetRead(args)
	case "sheet_crop_mark":
		return s.handleSheetCropMark(args)
	case "sheet_overlay":
		return s.handleSheetOverlay(args)

	// Sorting
	case "sheet_sort":
		return s.handleSheetSort(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// requireArgs returns an error naming the first empty argument.
func requireArgs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("missing required argument: %s", pairs[i])
		}
	}
	return nil
}

// === Sheet Information Handlers ===

type sheetLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSheetLoad(args json.RawMessage) (interface{}, error) {
	var a sheetLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(a.Path)
}

type sheetLayoutArgs struct {
	SettingsPath string `json:"settings_path"`
}

// LayoutResult describes a parsed settings file.
type LayoutResult struct {
	CoordStyle     string         `json:"coord_style"`
	GaussianKSize  int            `json:"gaussian_ksize"`
	GaussianSigma  float64        `json:"gaussian_sigma"`
	ScoreThreshold float64        `json:"score_threshold"`
	ResizeRatio    float64        `json:"resize_ratio"`
	Fit            bool           `json:"fit"`
	Categories     []string       `json:"categories"`
	Boxes          mark.BoxLayout `json:"boxes"`
}

func (s *Server) handleSheetLayout(args json.RawMessage) (interface{}, error) {
	var a sheetLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("settings_path", a.SettingsPath); err != nil {
		return nil, err
	}

	cfg, err := settings.Load(a.SettingsPath)
	if err != nil {
		return nil, err
	}
	reader, err := cfg.Reader()
	if err != nil {
		return nil, err
	}

	opts := reader.Options()
	return &LayoutResult{
		CoordStyle:     opts.CoordStyle.String(),
		GaussianKSize:  opts.GaussianKSize,
		GaussianSigma:  opts.GaussianSigma,
		ScoreThreshold: opts.ScoreThreshold,
		ResizeRatio:    cfg.ResizeRatio,
		Fit:            cfg.Fit,
		Categories:     cfg.CategoryNames(),
		Boxes:          reader.Boxes(),
	}, nil
}

// === Mark Reading Handlers ===

type calibrationArgs struct {
	FitPath      string `json:"fit_path"`
	BaselinePath string `json:"baseline_path"`
}

// loadReader builds a reader from a settings file and calibrates it the way
// the sorter does: a saved baseline wins over a fit sheet, and a fit sheet is
// used only when the settings enable fitting.
func (s *Server) loadReader(settingsPath string, cal calibrationArgs) (*settings.Settings, *mark.Reader, error) {
	cfg, err := settings.Load(settingsPath)
	if err != nil {
		return nil, nil, err
	}
	reader, err := cfg.Reader()
	if err != nil {
		return nil, nil, err
	}

	switch {
	case cal.BaselinePath != "":
		baseline, err := settings.LoadBaseline(cal.BaselinePath)
		if err != nil {
			return nil, nil, err
		}
		reader.SetBaseline(baseline)
	case cal.FitPath != "" && cfg.Fit:
		sheet, err := s.cache.Load(cal.FitPath, cfg.ResizeRatio)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load fit sheet: %w", err)
		}
		if err := reader.Fit(sheet.Image); err != nil {
			return nil, nil, err
		}
	}
	return cfg, reader, nil
}

type sheetReadArgs struct {
	calibrationArgs
	SettingsPath  string `json:"settings_path"`
	Path          string `json:"path"`
	IncludeScores bool   `json:"include_scores"`
}

// ReadResult is the outcome of reading one sheet.
type ReadResult struct {
	Path       string             `json:"path"`
	Result     mark.Result        `json:"result"`
	Folder     string             `json:"folder"`
	Fitted     bool               `json:"fitted"`
	Resolution imaging.Resolution `json:"resolution_dpi"`
	Scores     mark.Scores        `json:"scores,omitempty"`
}

func (s *Server) handleSheetRead(args json.RawMessage) (interface{}, error) {
	var a sheetReadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("settings_path", a.SettingsPath, "path", a.Path); err != nil {
		return nil, err
	}

	cfg, reader, err := s.loadReader(a.SettingsPath, a.calibrationArgs)
	if err != nil {
		return nil, err
	}
	sheet, err := s.cache.Load(a.Path, cfg.ResizeRatio)
	if err != nil {
		return nil, err
	}

	result, err := reader.Read(sheet.Image)
	if err != nil {
		return nil, err
	}

	out := &ReadResult{
		Path:       a.Path,
		Result:     result,
		Folder:     sorter.FolderName(reader.Categories(), result, sorter.DefaultUnmarkedDir),
		Fitted:     reader.Fitted(),
		Resolution: sheet.Resolution,
	}
	if a.IncludeScores {
		if out.Scores, err = reader.Scores(sheet.Image); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type sheetCropMarkArgs struct {
	SettingsPath string  `json:"settings_path"`
	Path         string  `json:"path"`
	Category     string  `json:"category"`
	Value        string  `json:"value"`
	Pad          int     `json:"pad"`
	Scale        float64 `json:"scale"`
}

func (s *Server) handleSheetCropMark(args json.RawMessage) (interface{}, error) {
	var a sheetCropMarkArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("settings_path", a.SettingsPath, "path", a.Path,
		"category", a.Category, "value", a.Value); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Pad < 0 {
		return nil, fmt.Errorf("pad must not be negative, got %d", a.Pad)
	}

	cfg, reader, err := s.loadReader(a.SettingsPath, calibrationArgs{})
	if err != nil {
		return nil, err
	}
	box, ok := reader.Boxes()[a.Category][a.Value]
	if !ok {
		return nil, fmt.Errorf("no box for %s.%s in %s", a.Category, a.Value, a.SettingsPath)
	}

	sheet, err := s.cache.Load(a.Path, cfg.ResizeRatio)
	if err != nil {
		return nil, err
	}
	return imaging.CropBox(sheet.Image, box, a.Pad, a.Scale)
}

type sheetOverlayArgs struct {
	calibrationArgs
	SettingsPath string `json:"settings_path"`
	Path         string `json:"path"`
}

func (s *Server) handleSheetOverlay(args json.RawMessage) (interface{}, error) {
	var a sheetOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("settings_path", a.SettingsPath, "path", a.Path); err != nil {
		return nil, err
	}

	cfg, reader, err := s.loadReader(a.SettingsPath, a.calibrationArgs)
	if err != nil {
		return nil, err
	}
	sheet, err := s.cache.Load(a.Path, cfg.ResizeRatio)
	if err != nil {
		return nil, err
	}

	result, err := reader.Read(sheet.Image)
	if err != nil {
		return nil, err
	}
	return imaging.MarkOverlay(sheet.Image, reader.Boxes(), result)
}

// === Sorting Handlers ===

type sheetSortArgs struct {
	calibrationArgs
	SettingsPath string `json:"settings_path"`
	InputDir     string `json:"input_dir"`
	OutputDir    string `json:"output_dir"`
	Ext          string `json:"ext"`
	CSVPath      string `json:"csv_path"`
	Encoding     string `json:"encoding"`
	Workers      int    `json:"workers"`
}

func (s *Server) handleSheetSort(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sheetSortArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("settings_path", a.SettingsPath, "input_dir", a.InputDir); err != nil {
		return nil, err
	}

	cfg, err := settings.Load(a.SettingsPath)
	if err != nil {
		return nil, err
	}
	return sorter.Run(ctx, sorter.Config{
		Settings:     cfg,
		InputDir:     a.InputDir,
		OutputDir:    a.OutputDir,
		Ext:          a.Ext,
		FitPath:      a.FitPath,
		BaselinePath: a.BaselinePath,
		Workers:      a.Workers,
		CSVPath:      a.CSVPath,
		Encoding:     a.Encoding,
	})
}
