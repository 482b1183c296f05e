package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the scanned page (PNG, JPEG, GIF, BMP or TIFF)",
	}
}

func thoroughProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Spend more time looking for the template barcode, including rotated pages. Defaults to the server configuration",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "omr_analyze_sheet",
			Description: "Analyze a scanned answer sheet: decode the template barcode, locate the four corner fiducials and report corners, skew angle and paper/ink contrast. The image is not modified; an annotated copy can be requested with overlay.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"thorough": thoroughProperty(),
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the page with detected fiducials and the form outline drawn on it",
						"default":     false,
					},
					"overlay_color": map[string]interface{}{
						"type":        "string",
						"description": "Overlay color in hex format (e.g., '#FF0000'). Default red",
						"default":     "#FF0000",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the overlay image. Default 0.5",
						"default":     0.5,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_rectify_sheet",
			Description: "Deskew a scanned answer sheet and crop it to its fiducial rectangle. Returns the analysis and the rectified page as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"thorough": thoroughProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the returned image (e.g., 0.5 for half size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_scan_batch",
			Description: "Rectify a batch of scanned pages in parallel. Pages are numbered in the order given (or by file name when a directory is given) and results are reported in that order with counts per outcome.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"description": "Absolute paths of the pages, in acquisition order",
						"items": map[string]interface{}{
							"type": "string",
						},
					},
					"directory": map[string]interface{}{
						"type":        "string",
						"description": "Directory whose image files are scanned in name order. Used when paths is empty",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Number of pages processed in parallel. Defaults to the server configuration",
					},
				},
			},
		},
		{
			Name:        "omr_binarize",
			Description: "Return the binary mask used for fiducial detection as base64-encoded PNG. Printed marks are white on black. Useful for diagnosing pages that are not scannable.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level (0-255) at or above which a pixel counts as paper. Default 240",
						"default":     240,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the returned image. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
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
