package types

// TableRef is a raw table target, used when no model is registered for it.
type TableRef struct {
	Name   string
	Schema string
	As     string
}
