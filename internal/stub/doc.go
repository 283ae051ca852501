// Package stub binds discovered tools to callable functions.
//
// A [Stub] reaches its server through an [Invoker]: a [Direct] invoker opens
// a fresh streamable HTTP session per call, a proxy client posts to a running
// proxy, and a registry routes over its live connections.
package stub
