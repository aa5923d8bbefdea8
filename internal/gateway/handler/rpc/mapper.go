package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"flowcanvas/internal/flow"
)

func structJSON(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return raw, nil
}

func documentFromStruct(s *structpb.Struct) (*flow.Document, error) {
	raw, err := structJSON(s)
	if err != nil {
		return nil, err
	}
	return flow.Parse(raw)
}

// toStruct converts any JSON-encodable value into a Struct. Numbers come
// back as doubles.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode response struct: %w", err)
	}
	return out, nil
}

func structResponse(v any) (*connect.Response[structpb.Struct], error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}
