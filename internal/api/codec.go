package api

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/vault"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts v to a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// Raw returns the JSON form of s. A nil Struct is an empty object.
func Raw(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return b, nil
}

// Decode fills v from s.
func Decode(s *structpb.Struct, v any) error {
	b, err := Raw(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// NewRecordResult marshals r for the wire.
func NewRecordResult(r vault.Record, recErr error) (RecordResult, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return RecordResult{}, fmt.Errorf("encode %s record: %w", r.Category(), err)
	}
	out := RecordResult{Record: b}
	if recErr != nil {
		out.Error = recErr.Error()
	}
	return out, nil
}

// DecodeRecord turns a wire result of category c back into a record.
func (r RecordResult) DecodeRecord(c vault.Category) (vault.Record, error) {
	return vault.DecodeRecord(c, r.Record)
}

// NewAddRecordRequest builds the request that stores r. The server assigns
// record IDs, so any ID already set on r is not sent.
func NewAddRecordRequest(r vault.Record) (AddRecordRequest, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return AddRecordRequest{}, fmt.Errorf("encode %s record: %w", r.Category(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return AddRecordRequest{}, fmt.Errorf("encode %s record: %w", r.Category(), err)
	}
	delete(fields, "id")

	body, err := json.Marshal(fields)
	if err != nil {
		return AddRecordRequest{}, fmt.Errorf("encode %s record: %w", r.Category(), err)
	}
	return AddRecordRequest{Category: r.Category(), Record: body}, nil
}
