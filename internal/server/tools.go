package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// calibrationProps are the optional arguments shared by tools that read marks.
func calibrationProps() map[string]interface{} {
	return map[string]interface{}{
		"fit_path":      stringProp("Optional blank reference sheet to calibrate against. Used only when the settings enable sheet_fit."),
		"baseline_path": stringProp("Optional saved baseline YAML file to calibrate with instead of fitting"),
	}
}

func withProps(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sheet Information
		{
			Name:        "sheet_load",
			Description: "Load a scanned sheet and return its dimensions, format, resolution in DPI and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_layout",
			Description: "Parse a settings file and return the reader options and every mark box, normalized to x/y/width/height pixels in sorted category order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"settings_path": stringProp("Absolute path to the YAML settings file"),
				},
				"required": []string{"settings_path"},
			},
		},

		// Mark Reading
		{
			Name:        "sheet_read",
			Description: "Read the marks on a sheet. Returns the selected value per category (empty when no mark was accepted) and the folder the sorter would file the sheet into.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(map[string]interface{}{
					"settings_path": stringProp("Absolute path to the YAML settings file"),
					"path":          stringProp("Absolute path to the sheet image"),
					"include_scores": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the score of every value. Default false",
						"default":     false,
					},
				}, calibrationProps()),
				"required": []string{"settings_path", "path"},
			},
		},
		{
			Name:        "sheet_crop_mark",
			Description: "Crop the box of one value from a sheet and return it as base64-encoded PNG. Use this to inspect a mark the reader accepted or missed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"settings_path": stringProp("Absolute path to the YAML settings file"),
					"path":          stringProp("Absolute path to the sheet image"),
					"category":      stringProp("Category name from the settings file"),
					"value":         stringProp("Value name within the category"),
					"pad": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of context to include around the box. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"settings_path", "path", "category", "value"},
			},
		},
		{
			Name:        "sheet_overlay",
			Description: "Draw every mark box of the layout on a sheet, one color per category, with the selected boxes filled. Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(map[string]interface{}{
					"settings_path": stringProp("Absolute path to the YAML settings file"),
					"path":          stringProp("Absolute path to the sheet image"),
				}, calibrationProps()),
				"required": []string{"settings_path", "path"},
			},
		},

		// Sorting
		{
			Name:        "sheet_sort",
			Description: "Read every sheet in a directory and copy each into a folder named after its marks. Optionally writes a CSV log.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(map[string]interface{}{
					"settings_path": stringProp("Absolute path to the YAML settings file"),
					"input_dir":     stringProp("Directory searched recursively for sheets"),
					"output_dir":    stringProp("Destination directory. Default <input_dir>_sorted"),
					"ext":           stringProp("Only read files with this extension, e.g. \"png\""),
					"csv_path":      stringProp("Optional CSV log path"),
					"encoding": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"utf-8", "shift_jis"},
						"description": "CSV log encoding. Default utf-8",
						"default":     "utf-8",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Concurrent reads. Default number of CPUs",
					},
				}, calibrationProps()),
				"required": []string{"settings_path", "input_dir"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
