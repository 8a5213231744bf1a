package types

// Context is one contextual item forwarded to the agent with a run.
type Context struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}
