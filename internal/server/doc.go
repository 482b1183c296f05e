// Package server implements the MCP (Model Context Protocol) server for OMR
// sheet normalization.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - omr_analyze_sheet: Locate fiducials and decode the template barcode
//   - omr_rectify_sheet: Deskew and crop a sheet to its form area
//   - omr_scan_batch: Rectify many sheets concurrently, results in input order
//   - omr_binarize: Show the foreground mask the fiducial search sees
//
// Pages are decoded once and cached by path for the lifetime of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The error string, prefixed with its error type
//
// A sheet that is simply not scannable is not an error: the tool result
// carries scannable=false and a reason.
package server
