// Package semantic owns all vector-store operations. Each Store is bound to
// one Qdrant collection; the application opens one for car descriptions and
// one for car images.
package semantic

import (
	"context"
	"crypto/tls"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Store is the sole owner of all Qdrant operations for one collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a Store connected to a local Qdrant at the given gRPC address.
func New(addr string, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// apiKeyCreds sends the cloud API key with every RPC.
type apiKeyCreds struct{ key string }

func (c apiKeyCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"api-key": c.key}, nil
}

func (c apiKeyCreds) RequireTransportSecurity() bool { return true }

// NewCloud creates a Store connected to a managed Qdrant over TLS with an
// API key. The region is advisory; the URI already points at the right
// deployment and the value is only logged by callers.
func NewCloud(uri, apiKey, collection string) (*Store, error) {
	conn, err := grpc.NewClient(uri,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})),
		grpc.WithPerRPCCredentials(apiKeyCreds{key: apiKey}),
	)
	if err != nil {
		return nil, fmt.Errorf("semantic: dial cloud %s: %w", uri, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients creates a Store from pre-built clients. Used by tests.
func NewWithClients(points pb.PointsClient, collections pb.CollectionsClient, collection string) *Store {
	return &Store{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Collection returns the bound collection name.
func (s *Store) Collection() string { return s.collection }

// EnsureCollection creates the collection with a cosine vector schema if it
// doesn't exist. An existing collection is left untouched, so the schema is
// fixed by whichever indexer ran first. A brand-new collection is empty;
// callers must treat "no points" as a valid state.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	d := uint64(dims)
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", s.collection, err)
	}
	return nil
}

// EnsureVectorIndex tunes the collection's HNSW graph so similarity search
// runs indexed rather than as a linear scan. Indexers call this best-effort:
// a failure degrades to unindexed search and is logged, never fatal.
func (s *Store) EnsureVectorIndex(ctx context.Context) error {
	m := uint64(16)
	efConstruct := uint64(128)
	threshold := uint64(1000)
	_, err := s.collections.Update(ctx, &pb.UpdateCollection{
		CollectionName: s.collection,
		HnswConfig: &pb.HnswConfigDiff{
			M:           &m,
			EfConstruct: &efConstruct,
		},
		OptimizersConfig: &pb.OptimizersConfigDiff{
			IndexingThreshold: &threshold,
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: vector index %s: %w", s.collection, err)
	}
	return nil
}

// EnsureTextIndex (re)builds full-text payload indexes over the given
// fields, replacing any prior index per field. Existing field indexes are
// dropped first; a missing index is not an error.
func (s *Store) EnsureTextIndex(ctx context.Context, fields []string) error {
	wait := true
	lowercase := true
	minToken := uint64(2)
	maxToken := uint64(20)

	for _, field := range fields {
		// Drop-then-create gives replace semantics. Deleting an index that
		// was never built fails on some store versions; ignore and proceed.
		_, _ = s.points.DeleteFieldIndex(ctx, &pb.DeleteFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			Wait:           &wait,
		})

		_, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      pb.FieldType_FieldTypeText.Enum(),
			FieldIndexParams: &pb.PayloadIndexParams{
				IndexParams: &pb.PayloadIndexParams_TextIndexParams{
					TextIndexParams: &pb.TextIndexParams{
						Tokenizer:   pb.TokenizerType_Word,
						Lowercase:   &lowercase,
						MinTokenLen: &minToken,
						MaxTokenLen: &maxToken,
					},
				},
			},
			Wait: &wait,
		})
		if err != nil {
			return fmt.Errorf("semantic: text index %s.%s: %w", s.collection, field, err)
		}
	}
	return nil
}

// Upsert stores records into the collection. Called by the indexers only;
// the search path is read-only.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload := make(map[string]*pb.Value, len(r.Payload))
		for k, v := range r.Payload {
			payload[k] = toValue(v)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Vector},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// Search performs k-NN similarity search, ranked by cosine score.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = Hit{
			ID:      r.GetId().GetUuid(),
			Score:   r.GetScore(),
			Payload: fromPayload(r.GetPayload()),
		}
	}
	return hits, nil
}

// FullText scans for points whose indexed text fields match the query,
// matching any of the given fields. Results are capped but unranked; the
// caller decides whether an empty result warrants a vector fallback.
func (s *Store) FullText(ctx context.Context, query string, fields []string, limit int) ([]Hit, error) {
	should := make([]*pb.Condition, len(fields))
	for i, field := range fields {
		should[i] = textMatch(field, query)
	}

	lim := uint32(limit)
	resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: s.collection,
		Filter:         &pb.Filter{Should: should},
		Limit:          &lim,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: full-text search: %w", err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = Hit{
			ID:      r.GetId().GetUuid(),
			Payload: fromPayload(r.GetPayload()),
		}
	}
	return hits, nil
}

func textMatch(field, query string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: field,
				Match: &pb.Match{
					MatchValue: &pb.Match_Text{Text: query},
				},
			},
		},
	}
}
