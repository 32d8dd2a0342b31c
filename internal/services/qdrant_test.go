package services

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type fakePointsClient struct {
	pb.PointsClient
	request *pb.CountPoints
	md      metadata.MD
	count   uint64
	err     error
}

func (f *fakePointsClient) Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error) {
	f.request = in
	f.md, _ = metadata.FromOutgoingContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &pb.CountResponse{Result: &pb.CountResult{Count: f.count}}, nil
}

func TestVectorAuditor(t *testing.T) {
	t.Run("CountDocumentVectors_Success", func(t *testing.T) {
		fake := &fakePointsClient{count: 12}
		auditor := &VectorAuditor{pointsClient: fake, collection: "documents", apiKey: "secret"}

		count, err := auditor.CountDocumentVectors(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, uint64(12), count)
		assert.Equal(t, "documents", fake.request.GetCollectionName())
		assert.True(t, fake.request.GetExact())
		field := fake.request.GetFilter().GetMust()[0].GetField()
		assert.Equal(t, "document_id", field.GetKey())
		assert.Equal(t, int64(42), field.GetMatch().GetInteger())
		assert.Equal(t, []string{"secret"}, fake.md.Get("api-key"))
	})

	t.Run("CountDocumentVectors_NoAPIKey", func(t *testing.T) {
		fake := &fakePointsClient{}
		auditor := &VectorAuditor{pointsClient: fake, collection: "documents"}

		_, err := auditor.CountDocumentVectors(context.Background(), 1)

		require.NoError(t, err)
		assert.Empty(t, fake.md.Get("api-key"))
	})

	t.Run("CountDocumentVectors_Error", func(t *testing.T) {
		auditor := &VectorAuditor{pointsClient: &fakePointsClient{err: errors.New("unavailable")}, collection: "documents"}

		_, err := auditor.CountDocumentVectors(context.Background(), 7)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "document 7")
	})

	t.Run("Close_WithoutConnection", func(t *testing.T) {
		auditor := &VectorAuditor{}

		assert.NoError(t, auditor.Close())
	})
}
