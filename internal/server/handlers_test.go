package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/omr-sheet-mcp/internal/batch"
	"github.com/ironsheep/omr-sheet-mcp/internal/sheet"
)

// createSheetImage creates a white page with four 45px corner fiducials
// inset 100px from each edge
func createSheetImage(width, height int, withMarkers bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	if !withMarkers {
		return img
	}

	for _, c := range []image.Point{
		{X: 100, Y: 100}, {X: width - 100, Y: 100},
		{X: 100, Y: height - 100}, {X: width - 100, Y: height - 100},
	} {
		for y := c.Y - 45; y <= c.Y+45; y++ {
			for x := c.X - 45; x <= c.X+45; x++ {
				dx, dy := x-c.X, y-c.Y
				if dx*dx+dy*dy <= 45*45 {
					img.Set(x, y, color.Black)
				}
			}
		}
	}
	return img
}

// writeImageFile encodes img as PNG into dir and returns its path
func writeImageFile(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return resp
}

func TestHandleToolsCall_AnalyzeSheet(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "sheet.png", createSheetImage(600, 800, true))

	var summary sheet.Summary
	resp := callTool(t, s, "omr_analyze_sheet", map[string]interface{}{"path": path, "thorough": false}, &summary)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if !summary.Scannable {
		t.Fatalf("sheet should be scannable: %s", summary.Reason)
	}
	if summary.Rectified {
		t.Error("analyze must not rectify")
	}
	if summary.Corners == nil {
		t.Fatal("corners missing")
	}
	if got := summary.Corners.BottomRight.Y; got < 695 || got > 705 {
		t.Errorf("bottom-right y: got %.1f, want ~700", got)
	}
	if summary.Width != 600 || summary.Height != 800 {
		t.Errorf("size: got %dx%d, want 600x800", summary.Width, summary.Height)
	}
	if summary.Template != nil {
		t.Errorf("unexpected template %+v", summary.Template)
	}
}

func TestHandleToolsCall_AnalyzeSheet_Overlay(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "sheet.png", createSheetImage(600, 800, true))

	var result AnalyzeResult
	resp := callTool(t, s, "omr_analyze_sheet", map[string]interface{}{"path": path, "overlay": true}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if !result.Scannable {
		t.Fatalf("sheet should be scannable: %s", result.Reason)
	}
	if result.Overlay == nil {
		t.Fatal("overlay missing")
	}
	if result.Overlay.Width != 300 || result.Overlay.Height != 400 {
		t.Errorf("overlay size: got %dx%d, want 300x400", result.Overlay.Width, result.Overlay.Height)
	}
}

func TestHandleToolsCall_AnalyzeSheet_NotScannable(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "blank.png", createSheetImage(300, 300, false))

	var summary sheet.Summary
	resp := callTool(t, s, "omr_analyze_sheet", map[string]interface{}{"path": path}, &summary)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if summary.Scannable {
		t.Error("blank page should not be scannable")
	}
	if summary.Reason == "" {
		t.Error("reason should explain the failure")
	}
	if summary.Corners != nil {
		t.Error("corners should be absent")
	}
}

func TestHandleToolsCall_RectifySheet(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "sheet.png", createSheetImage(600, 800, true))

	var result RectifyResult
	resp := callTool(t, s, "omr_rectify_sheet", map[string]interface{}{"path": path, "scale": 0.5}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if !result.Sheet.Rectified {
		t.Fatalf("sheet should be rectified: %s", result.Sheet.Reason)
	}
	if result.Image == nil {
		t.Fatal("rectified image missing")
	}
	if result.Image.MimeType != "image/png" || result.Image.ImageBase64 == "" {
		t.Errorf("unexpected image encoding: %s", result.Image.MimeType)
	}
	if result.Image.Width < 198 || result.Image.Width > 202 {
		t.Errorf("image width: got %d, want ~200", result.Image.Width)
	}
}

func TestHandleToolsCall_RectifySheet_NotScannable(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "blank.png", createSheetImage(300, 300, false))

	var result RectifyResult
	resp := callTool(t, s, "omr_rectify_sheet", map[string]interface{}{"path": path}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if result.Sheet.Rectified || result.Image != nil {
		t.Error("blank page should not produce a rectified image")
	}
}

func TestHandleToolsCall_ScanBatch(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	writeImageFile(t, dir, "01.png", createSheetImage(600, 600, true))
	writeImageFile(t, dir, "02.png", createSheetImage(300, 300, false))
	writeImageFile(t, dir, "03.png", createSheetImage(600, 600, true))
	if err := os.WriteFile(filepath.Join(dir, "04.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	var report batch.Report
	resp := callTool(t, s, "omr_scan_batch", map[string]interface{}{"directory": dir, "workers": 2}, &report)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if report.Total != 4 {
		t.Fatalf("Total: got %d, want 4", report.Total)
	}
	want := []batch.Outcome{batch.OutcomeRectified, batch.OutcomeNotScannable, batch.OutcomeRectified, batch.OutcomeError}
	for i, r := range report.Results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Outcome != want[i] {
			t.Errorf("result %d: outcome %s, want %s (%s)", i, r.Outcome, want[i], r.Error)
		}
	}
	if report.Rectified != 2 || report.NotScannable != 1 || report.Failed != 1 {
		t.Errorf("counts: %d/%d/%d", report.Rectified, report.NotScannable, report.Failed)
	}
	if report.BatchID == "" {
		t.Error("batch id missing")
	}
}

func TestHandleToolsCall_ScanBatch_Paths(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	b := writeImageFile(t, dir, "b.png", createSheetImage(600, 600, true))
	a := writeImageFile(t, dir, "a.png", createSheetImage(300, 300, false))

	var report batch.Report
	resp := callTool(t, s, "omr_scan_batch", map[string]interface{}{"paths": []string{b, a}}, &report)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if len(report.Results) != 2 {
		t.Fatalf("Results: got %d, want 2", len(report.Results))
	}
	if report.Results[0].Name != "b.png" || report.Results[1].Name != "a.png" {
		t.Errorf("order not preserved: %s, %s", report.Results[0].Name, report.Results[1].Name)
	}
}

func TestHandleToolsCall_ScanBatch_EvictsCachedPages(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	path := writeImageFile(t, dir, "page.png", createSheetImage(300, 300, false))

	callTool(t, s, "omr_analyze_sheet", map[string]interface{}{"path": path}, nil)
	if s.cache.Len() != 1 {
		t.Fatalf("cache size after analyze: got %d, want 1", s.cache.Len())
	}

	// the scanner replaces the page with a scannable one
	writeImageFile(t, dir, "page.png", createSheetImage(600, 600, true))

	var report batch.Report
	resp := callTool(t, s, "omr_scan_batch", map[string]interface{}{"paths": []string{path}}, &report)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if report.Results[0].Outcome != batch.OutcomeRectified {
		t.Errorf("outcome: got %s, want rectified", report.Results[0].Outcome)
	}
	if s.cache.Len() != 0 {
		t.Errorf("cache size after batch: got %d, want 0", s.cache.Len())
	}

	var summary sheet.Summary
	callTool(t, s, "omr_analyze_sheet", map[string]interface{}{"path": path}, &summary)
	if !summary.Scannable || summary.Width != 600 {
		t.Errorf("analyze after batch should see the new page: scannable=%v width=%d", summary.Scannable, summary.Width)
	}
}

func TestHandleToolsCall_ScanBatch_MissingInput(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "omr_scan_batch", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Fatal("expected error without paths or directory")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_Binarize(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "sheet.png", createSheetImage(400, 400, true))

	var result BinarizeResult
	resp := callTool(t, s, "omr_binarize", map[string]interface{}{"path": path, "scale": 0.5}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if result.Threshold != 240 {
		t.Errorf("Threshold: got %d, want 240", result.Threshold)
	}
	// four disks of radius 45 on a 400x400 page
	if result.Foreground < 0.15 || result.Foreground > 0.17 {
		t.Errorf("Foreground ratio: got %.3f, want ~0.16", result.Foreground)
	}
	if result.Image == nil || result.Image.Width != 200 {
		t.Errorf("unexpected image: %+v", result.Image)
	}
}

func TestHandleToolsCall_Binarize_BadThreshold(t *testing.T) {
	s := newTestServer(t)
	path := writeImageFile(t, t.TempDir(), "sheet.png", createSheetImage(200, 200, false))

	resp := callTool(t, s, "omr_binarize", map[string]interface{}{"path": path, "threshold": 300}, nil)
	if resp.Error == nil {
		t.Fatal("expected error for threshold 300")
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range []string{"omr_analyze_sheet", "omr_rectify_sheet", "omr_binarize"} {
		resp := callTool(t, s, tool, map[string]interface{}{"path": "/nonexistent/sheet.png"}, nil)
		if resp.Error == nil {
			t.Errorf("%s: expected error for missing file", tool)
		}
	}
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "omr_analyze_sheet", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Fatal("Expected error for invalid tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid json}`),
	})
	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}
