// Package proxy hosts a tool server registry in a separate OS process behind
// a small JSON HTTP surface, for callers that cannot spawn processes
// themselves.
//
// The surface is:
//
//	GET  /                                   {"status":"running","servers":[...]}
//	GET  /servers                            {"<server>":{"tools":["<qualified>",...]}}
//	POST /mcp/{server}/call_tool?tool_name=  {"success":true,"result":"..."}
//
// Errors are reported as {"detail":"..."} with 404 for an unknown server,
// 422 for a malformed request and 500 for a failed call.
//
// [RunProcess] is the entry point of the proxy binary. [Service] launches it
// from the controlling process, waits for readiness and stops it. [Client]
// calls tools through a running proxy.
package proxy
