package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/region"
)

// ErrNoModel is returned by model tools when the server runs without a model.
var ErrNoModel = errors.New("no model loaded")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "region_predict").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Str("tool", params.Name).Err(err).Msg("tool failed")
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "model_info":
		return s.handleModelInfo(args)
	case "region_predict":
		return s.handleRegionPredict(args)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// ModelInfo describes the served model.
type ModelInfo struct {
	Kind        string   `json:"kind"`
	Classes     []string `json:"classes"`
	WorkingPath string   `json:"working_path"`
}

func (s *Server) handleModelInfo(args json.RawMessage) (interface{}, error) {
	if s.adapter == nil {
		return nil, ErrNoModel
	}
	return &ModelInfo{
		Kind:        s.kind,
		Classes:     s.adapter.Classes(),
		WorkingPath: s.adapter.WorkingPath(),
	}, nil
}

type regionPredictArgs struct {
	Path    string       `json:"path"`
	ImageID string       `json:"image_id"`
	WKT     string       `json:"wkt"`
	Points  [][2]float64 `json:"points"`
}

func (s *Server) handleRegionPredict(args json.RawMessage) (interface{}, error) {
	if s.adapter == nil {
		return nil, ErrNoModel
	}
	var a regionPredictArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	var poly region.Polygon
	switch {
	case a.WKT != "" && len(a.Points) > 0:
		return nil, fmt.Errorf("give either wkt or points, not both")
	case a.WKT != "":
		var err error
		if poly, err = region.ParseWKT(a.WKT); err != nil {
			return nil, err
		}
	case len(a.Points) > 0:
		for _, p := range a.Points {
			poly = append(poly, region.Point{X: p[0], Y: p[1]})
		}
	default:
		return nil, fmt.Errorf("a polygon is required (wkt or points)")
	}

	id := a.ImageID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
	}
	pred, err := s.adapter.PredictDetail(region.FileImage{ImageID: id, Path: a.Path}, poly)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("image", id).Str("label", pred.Label).Bool("cached", pred.Cached).Msg("region classified")
	return pred, nil
}
