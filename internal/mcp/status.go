package mcp

// ServerStatus reports the connection state of a single tool server.
type ServerStatus struct {
	Name      string     `json:"name"`
	Type      ServerType `json:"type"`
	Status    string     `json:"status"`
	ToolCount int        `json:"tool_count"`
	Error     string     `json:"error,omitempty"`
}

// Status reports every server a registry holds, in registration order.
type Status struct {
	Servers []ServerStatus `json:"servers"`
}
