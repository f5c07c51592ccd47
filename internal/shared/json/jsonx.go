package jsonx

import "github.com/goccy/go-json"

// Thin wrapper so handlers and the CLI share one JSON implementation.
var (
	Marshal       = json.Marshal
	MarshalIndent = json.MarshalIndent
	Unmarshal     = json.Unmarshal
	NewDecoder    = json.NewDecoder
	NewEncoder    = json.NewEncoder
)

type RawMessage = json.RawMessage
