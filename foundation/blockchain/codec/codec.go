// Package codec provides the wire encodings used to move blocks and keys
// between nodes and to export the chain.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Set of supported codec names.
const (
	NameJSON    = "json"
	NameMsgPack = "msgpack"
)

// Codec interface represents the behavior required to be implemented by any
// package providing support for encoding messages sent between nodes.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// New returns the codec for the specified name.
func New(name string) (Codec, error) {
	switch name {
	case NameJSON, "":
		return JSON{}, nil
	case NameMsgPack:
		return MsgPack{}, nil
	}

	return nil, fmt.Errorf("unknown codec %q", name)
}

// =============================================================================

// JSON encodes values as JSON.
type JSON struct {
	// Indent produces human readable output, used for export files.
	Indent bool
}

// Name implements the Codec interface.
func (JSON) Name() string {
	return NameJSON
}

// Marshal implements the Codec interface.
func (c JSON) Marshal(v any) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Unmarshal implements the Codec interface.
func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// =============================================================================

// MsgPack encodes values using MessagePack.
type MsgPack struct{}

// Name implements the Codec interface.
func (MsgPack) Name() string {
	return NameMsgPack
}

// Marshal implements the Codec interface.
func (MsgPack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal implements the Codec interface.
func (MsgPack) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
