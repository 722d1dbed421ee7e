// Package codec registers the JSON gRPC codec. Importing it (directly or via
// a service client) is enough to make the "json" content-subtype available.
package codec

import (
	"github.com/goccy/go-json"
	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype clients select with
// grpc.CallContentSubtype(Name).
const Name = "json"

// JSON carries plain Go structs over gRPC as JSON.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (JSON) Name() string { return Name }

func init() {
	encoding.RegisterCodec(JSON{})
}
