package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "model_info",
			Description: "Describe the loaded model: estimator kind, class labels in probability order, and tile directory.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "region_predict",
			Description: "Classify a polygonal region of an image. The bounding box of the polygon is cut out, cached as a PNG tile in the working directory, and classified. Give the polygon either as WKT or as a list of [x, y] points.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the source image",
					},
					"image_id": map[string]interface{}{
						"type":        "string",
						"description": "Identifier of the image used in tile names. Defaults to the file name without extension",
					},
					"wkt": map[string]interface{}{
						"type":        "string",
						"description": "Polygon in well-known text, e.g. POLYGON ((10 10, 40 10, 40 30, 10 10))",
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Polygon vertices as [x, y] pairs in pixel coordinates",
						"items": map[string]interface{}{
							"type":     "array",
							"items":    map[string]interface{}{"type": "number"},
							"minItems": 2,
							"maxItems": 2,
						},
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
