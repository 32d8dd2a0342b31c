package services

import (
	"context"
	"fmt"

	"kb-admin-client/internal/config"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// VectorAuditor checks what the backend's Qdrant collection holds for a
// document. It never writes.
type VectorAuditor struct {
	pointsClient pb.PointsClient
	collection   string
	apiKey       string
	conn         *grpc.ClientConn
}

func NewVectorAuditor(cfg *config.QdrantConfig) (*VectorAuditor, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &VectorAuditor{
		pointsClient: pb.NewPointsClient(conn),
		collection:   cfg.Collection,
		apiKey:       cfg.APIKey,
		conn:         conn,
	}, nil
}

func (q *VectorAuditor) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

func (q *VectorAuditor) CountDocumentVectors(ctx context.Context, documentID int) (uint64, error) {
	filter := &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "document_id",
						Match: &pb.Match{
							MatchValue: &pb.Match_Integer{
								Integer: int64(documentID),
							},
						},
					},
				},
			},
		},
	}

	if q.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", q.apiKey)
	}

	exact := true
	resp, err := q.pointsClient.Count(ctx, &pb.CountPoints{
		CollectionName: q.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count vectors for document %d: %w", documentID, err)
	}

	return resp.GetResult().GetCount(), nil
}
