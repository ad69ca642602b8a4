// Package server implements an MCP (Model Context Protocol) server for
// inspecting and sorting scanned mark sheets.
//
// This package provides a JSON-RPC 2.0 server so MCP-compatible clients can
// check a sheet layout against real scans before running a full sort.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with responses.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Sheet Information:
//   - sheet_load: Image metadata including resolution
//   - sheet_layout: Parsed settings and normalized mark boxes
//
// Mark Reading:
//   - sheet_read: Selected value per category, optionally with scores
//   - sheet_crop_mark: Zoom into one mark box
//   - sheet_overlay: Render the layout and selection over the sheet
//
// Sorting:
//   - sheet_sort: Sort a directory of sheets into folders
//
// Tools that read marks accept fit_path or baseline_path to calibrate the
// reader, with the same precedence the sorter uses.
//
// # Sheet Caching
//
// Decoded sheets are cached by path and resize ratio for the lifetime of the
// server process. Settings files are re-read on every call so edits to a
// layout take effect immediately.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
