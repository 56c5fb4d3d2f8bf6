package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/region"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// redness scores tiles by their mean red component.
type redness struct {
	cache *imaging.ImageCache
}

func (r redness) PredictProba(X []string) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, path := range X {
		img, err := r.cache.Load(path)
		if err != nil {
			return nil, err
		}
		v := imaging.Features(img, imaging.RGB)
		var red float64
		for j := 0; j < len(v); j += 3 {
			red += v[j]
		}
		red /= float64(len(v) / 3)
		out[i] = []float64{1 - red, red}
	}
	return out, nil
}

func newModelServer(t *testing.T) *Server {
	t.Helper()
	cache := imaging.NewImageCache(8)
	adapter := region.NewAdapter(redness{cache: imaging.NewImageCache(8)}, region.CropTileBuilder{Cache: cache},
		[]string{"NEGATIVE", "POSITIVE"}, t.TempDir())
	return New(Options{Cache: cache, Adapter: adapter, ModelKind: "test"})
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	paramsJSON, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: paramsJSON})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// resultText extracts the JSON text of a successful tool response.
func resultText(t *testing.T, resp *MCPResponse) string {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	return content[0]["text"].(string)
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info imaging.ImageInfo
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}))), &info); err != nil {
		t.Fatalf("invalid result: %v", err)
	}
	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := New(Options{})

	tests := []struct {
		name string
		tool string
		args interface{}
		code int
	}{
		{"non-existent file", "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}, -32000},
		{"missing path", "image_load", map[string]interface{}{}, -32000},
		{"unknown tool", "nonexistent_tool", map[string]interface{}{}, -32000},
		{"no model info", "model_info", map[string]interface{}{}, -32000},
		{"no model predict", "region_predict", map[string]interface{}{"path": "/a.png", "wkt": "POINT (1 1)"}, -32000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code: got %d, want %d", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(Options{})
	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: json.RawMessage(`{"name":`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_ModelInfo(t *testing.T) {
	s := newModelServer(t)

	var info ModelInfo
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "model_info", map[string]interface{}{}))), &info); err != nil {
		t.Fatalf("invalid result: %v", err)
	}
	if info.Kind != "test" {
		t.Errorf("kind: got %s, want test", info.Kind)
	}
	if strings.Join(info.Classes, ",") != "NEGATIVE,POSITIVE" {
		t.Errorf("classes: got %v", info.Classes)
	}
}

func TestHandleToolsCall_RegionPredict(t *testing.T) {
	s := newModelServer(t)
	imgPath := createTestImageFile(t, 60, 40, color.RGBA{250, 0, 0, 255})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"wkt", map[string]interface{}{"path": imgPath, "image_id": "slide", "wkt": "POLYGON ((10 5, 29 5, 29 14, 10 5))"}},
		{"points", map[string]interface{}{"path": imgPath, "image_id": "slide", "points": [][2]float64{{10, 5}, {29, 5}, {29, 14}}}},
	}

	var paths []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pred region.Prediction
			if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "region_predict", tt.args))), &pred); err != nil {
				t.Fatalf("invalid result: %v", err)
			}
			if pred.Label != "POSITIVE" {
				t.Errorf("label: got %s, want POSITIVE", pred.Label)
			}
			if filepath.Base(pred.Path) != "slide_10_5_20_10.png" {
				t.Errorf("tile name: got %s", filepath.Base(pred.Path))
			}
			paths = append(paths, pred.Path)
		})
	}

	if len(paths) == 2 && paths[0] != paths[1] {
		t.Errorf("identical geometry produced different tiles: %v", paths)
	}
}

func TestHandleToolsCall_RegionPredict_DefaultImageID(t *testing.T) {
	s := newModelServer(t)
	imgPath := createTestImageFile(t, 20, 20, color.RGBA{0, 0, 250, 255})

	var pred region.Prediction
	args := map[string]interface{}{"path": imgPath, "wkt": "POINT (3 4)"}
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "region_predict", args))), &pred); err != nil {
		t.Fatalf("invalid result: %v", err)
	}
	wantID := strings.TrimSuffix(filepath.Base(imgPath), ".png")
	if pred.Key.ImageID != wantID {
		t.Errorf("image id: got %s, want %s", pred.Key.ImageID, wantID)
	}
	if pred.Label != "NEGATIVE" {
		t.Errorf("label: got %s, want NEGATIVE", pred.Label)
	}
}

func TestHandleToolsCall_RegionPredict_BadPolygon(t *testing.T) {
	s := newModelServer(t)
	imgPath := createTestImageFile(t, 20, 20, color.RGBA{0, 0, 250, 255})

	for _, args := range []map[string]interface{}{
		{"path": imgPath},
		{"path": imgPath, "wkt": "CIRCLE (1 1)"},
		{"path": imgPath, "wkt": "POINT (1 1)", "points": [][2]float64{{1, 1}}},
		{"wkt": "POINT (1 1)"},
		{"path": imgPath, "wkt": "POINT (500 500)"},
		{"path": imgPath, "image_id": "../escaped", "wkt": "POINT (1 1)"},
	} {
		if resp := callTool(t, s, "region_predict", args); resp.Error == nil {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newModelServer(t)
	imgPath := createTestImageFile(t, 20, 20, color.RGBA{10, 10, 10, 255})

	args := map[string]string{
		"image_load":     `{"path":"` + imgPath + `"}`,
		"model_info":     `{}`,
		"region_predict": `{"path":"` + imgPath + `","points":[[0,0],[5,5]]}`,
	}
	for _, tool := range GetToolDefinitions() {
		raw, ok := args[tool.Name]
		if !ok {
			t.Errorf("no test arguments for tool %s", tool.Name)
			continue
		}
		if _, err := s.executeTool(tool.Name, json.RawMessage(raw)); err != nil {
			t.Errorf("%s: %v", tool.Name, err)
		}
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newModelServer(t)
	for _, name := range []string{"image_load", "region_predict"} {
		if _, err := s.executeTool(name, json.RawMessage(`{`)); err == nil {
			t.Errorf("%s: expected error for invalid JSON", name)
		}
	}
}
