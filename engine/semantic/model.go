package semantic

import (
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
)

// Record is a single vector to store, with its payload fields.
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Hit is a single search result. Score is 0 for full-text hits, which come
// back unranked from a filter scan.
type Hit struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// toValue converts a Go payload value into the store's wire representation.
func toValue(v any) *pb.Value {
	switch t := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: t}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(t)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: t}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: t}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: t}}
	case []string:
		vals := make([]*pb.Value, len(t))
		for i, s := range t {
			vals[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	default:
		// An unhandled payload type is a caller bug; keep the value visible
		// rather than silently storing an empty string.
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprintf("%v", t)}}
	}
}

// fromValue converts a wire payload value back into a Go value. Lists come
// back as []any; callers normalize list-vs-scalar at their ingress boundary.
func fromValue(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_ListValue:
		out := make([]any, len(k.ListValue.GetValues()))
		for i, lv := range k.ListValue.GetValues() {
			out[i] = fromValue(lv)
		}
		return out
	default:
		return nil
	}
}

func fromPayload(p map[string]*pb.Value) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = fromValue(v)
	}
	return out
}
