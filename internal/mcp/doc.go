// Package mcp holds the protocol-level vocabulary shared by every toolbridge
// component: server specs, qualified tool names, tool descriptors and the
// normalization of tool results into strings.
//
// It also carries small helpers for building MCP tool servers with the
// official SDK, used by tests and examples to stand up servers in-process.
package mcp
