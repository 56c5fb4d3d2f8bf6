// Package server implements an MCP (Model Context Protocol) server that
// classifies image regions with a trained model.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs never go to stdout; pass a zerolog.Logger writing to stderr.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load image and get metadata
//   - model_info: Kind and classes of the loaded model
//   - region_predict: Classify the bounding box of a polygon
//
// # Tile Cache
//
// region_predict writes every tile to the adapter's working directory under a
// name derived from the image id and the window. Repeating a request reuses
// the tile on disk. Source images are kept in the server's ImageCache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Adapter: adapter, Logger: &logger})
//	if err := srv.Run(); err != nil {
//	    logger.Fatal().Err(err).Msg("server error")
//	}
package server
