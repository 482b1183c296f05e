package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/omr-sheet-mcp/internal/batch"
	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
	"github.com/ironsheep/omr-sheet-mcp/internal/sheet"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "omr_analyze_sheet").
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
		logger.WithError(err).WithField("tool", params.Name).Warn("Tool execution failed")
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "omr_analyze_sheet":
		return s.handleAnalyzeSheet(args)
	case "omr_rectify_sheet":
		return s.handleRectifySheet(args)
	case "omr_scan_batch":
		return s.handleScanBatch(ctx, args)
	case "omr_binarize":
		return s.handleBinarize(args)
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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadPage returns the cached decoded page at path.
func (s *Server) loadPage(path string) (image.Image, error) {
	if path == "" {
		return nil, apperrors.NewInvalidInputError("path is required", nil)
	}
	return s.cache.Load(path)
}

// === Sheet Handlers ===

type analyzeSheetArgs struct {
	Path         string  `json:"path"`
	Thorough     *bool   `json:"thorough"`
	Overlay      bool    `json:"overlay"`
	OverlayColor string  `json:"overlay_color"`
	Scale        float64 `json:"scale"`
}

// AnalyzeResult is the response of omr_analyze_sheet. Overlay is present only
// when requested.
type AnalyzeResult struct {
	sheet.Summary
	Overlay *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) thorough(override *bool) bool {
	if override != nil {
		return *override
	}
	return s.cfg.Thorough
}

func (s *Server) handleAnalyzeSheet(args json.RawMessage) (interface{}, error) {
	var a analyzeSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 0.5
	}
	img, err := s.loadPage(a.Path)
	if err != nil {
		return nil, err
	}

	sh := s.pipeline.NewSheet(a.Path, img)
	defer sh.Close()

	if err := sh.Analyze(s.thorough(a.Thorough)); err != nil {
		return nil, err
	}
	result := AnalyzeResult{Summary: sh.Summarize()}
	if a.Overlay {
		overlay, err := sh.Overlay(a.OverlayColor)
		if err != nil {
			return nil, err
		}
		if result.Overlay, err = imaging.EncodePNG(overlay, a.Scale); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type rectifySheetArgs struct {
	Path     string  `json:"path"`
	Thorough *bool   `json:"thorough"`
	Scale    float64 `json:"scale"`
}

// RectifyResult is the response of omr_rectify_sheet. Image is omitted when
// the sheet could not be rectified.
type RectifyResult struct {
	Sheet sheet.Summary         `json:"sheet"`
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleRectifySheet(args json.RawMessage) (interface{}, error) {
	var a rectifySheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.loadPage(a.Path)
	if err != nil {
		return nil, err
	}

	sh := s.pipeline.NewSheet(a.Path, img)
	defer sh.Close()

	if err := sh.Analyze(s.thorough(a.Thorough)); err != nil {
		return nil, err
	}
	if err := sh.Rectify(); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeRectificationAborted) {
			return RectifyResult{Sheet: sh.Summarize()}, nil
		}
		return nil, err
	}

	rectified, err := sh.Image()
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(rectified, a.Scale)
	if err != nil {
		return nil, err
	}
	return RectifyResult{Sheet: sh.Summarize(), Image: encoded}, nil
}

// === Batch Handlers ===

type scanBatchArgs struct {
	Paths     []string `json:"paths"`
	Directory string   `json:"directory"`
	Workers   int      `json:"workers"`
}

func (s *Server) handleScanBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	paths := a.Paths
	if len(paths) == 0 {
		if a.Directory == "" {
			return nil, apperrors.NewInvalidInputError("either paths or directory is required", nil)
		}
		listed, err := batch.ListImages(a.Directory)
		if err != nil {
			return nil, err
		}
		paths = listed
	}

	// batch pages are read fresh from disk; drop any copy cached by an
	// earlier single-sheet call so later calls see the same bytes
	for _, p := range paths {
		s.cache.Evict(p)
	}

	report, err := s.coordinator(a.Workers).Run(ctx, batch.FileSource(ctx, paths))
	if report != nil {
		defer func() {
			if cerr := report.Close(); cerr != nil {
				logger.WithError(cerr).Warn("Failed to release batch sheets")
			}
		}()
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// === Diagnostics Handlers ===

type binarizeArgs struct {
	Path      string  `json:"path"`
	Threshold *int    `json:"threshold"`
	Scale     float64 `json:"scale"`
}

// BinarizeResult is the response of omr_binarize.
type BinarizeResult struct {
	Threshold  int                   `json:"threshold"`
	Foreground float64               `json:"foreground_ratio"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleBinarize(args json.RawMessage) (interface{}, error) {
	var a binarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	threshold := int(s.cfg.Threshold)
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 || threshold > 255 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("threshold %d out of range 0-255", threshold), nil)
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	img, err := s.loadPage(a.Path)
	if err != nil {
		return nil, err
	}

	mask := imaging.Binarize(img, uint8(threshold))
	encoded, err := imaging.EncodePNG(mask, a.Scale)
	if err != nil {
		return nil, err
	}

	return BinarizeResult{
		Threshold:  threshold,
		Foreground: foregroundRatio(mask),
		Image:      encoded,
	}, nil
}

func foregroundRatio(mask *image.Gray) float64 {
	b := mask.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	on := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if imaging.IsForeground(mask, x, y) {
				on++
			}
		}
	}
	return float64(on) / float64(total)
}
