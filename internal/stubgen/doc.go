// Package stubgen renders Go source stubs for discovered tools.
//
// Each server gets its own package directory holding one file per tool and a
// tools.go index. Stubs of HTTP servers open a direct session per call; stubs
// of stdio servers call through the proxy. The tool description and input
// schema are copied into each stub's doc comment.
package stubgen
