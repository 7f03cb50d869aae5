package service

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// Vertex task types. Documents and queries are embedded with
// different task types so the vectors land in a shared, comparable
// space; this asymmetry is the whole point of the two Embedder
// methods.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// VertexConfig holds configuration for the Vertex embedder.
type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	Dimension       int
	CredentialsFile string
}

// VertexEmbedder generates embeddings with a Vertex AI text-embedding
// model.
type VertexEmbedder struct {
	client    *aiplatform.PredictionClient
	modelName string
	dimension int
}

var _ Embedder = (*VertexEmbedder)(nil)

// NewVertexEmbedder creates the prediction client and resolves the
// publisher model name.
func NewVertexEmbedder(ctx context.Context, cfg VertexConfig) (*VertexEmbedder, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := aiplatform.NewPredictionClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-005"
	}
	modelName := fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s",
		cfg.ProjectID, cfg.Location, cfg.Model)

	return &VertexEmbedder{
		client:    client,
		modelName: modelName,
		dimension: cfg.Dimension,
	}, nil
}

// EmbedDocuments embeds a batch of document texts in one prediction call.
func (v *VertexEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	instances := make([]*structpb.Value, len(texts))
	for i, text := range texts {
		instance, err := structpb.NewStruct(map[string]interface{}{
			"content":   text,
			"task_type": taskRetrievalDocument,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create instance: %w", err)
		}
		instances[i] = structpb.NewStructValue(instance)
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  v.modelName,
		Instances: instances,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if len(resp.Predictions) != len(texts) {
		return nil, fmt.Errorf("expected %d predictions, got %d", len(texts), len(resp.Predictions))
	}

	vectors := make([][]float32, len(resp.Predictions))
	for i, prediction := range resp.Predictions {
		vectors[i] = extractEmbedding(prediction)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query with the query task type.
func (v *VertexEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	instance, err := structpb.NewStruct(map[string]interface{}{
		"content":   text,
		"task_type": taskRetrievalQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  v.modelName,
		Instances: []*structpb.Value{structpb.NewStructValue(instance)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions returned")
	}

	return extractEmbedding(resp.Predictions[0]), nil
}

// Close releases the Vertex AI client resources.
func (v *VertexEmbedder) Close() error {
	return v.client.Close()
}

// extractEmbedding pulls the embeddings.values list out of a
// prediction struct.
func extractEmbedding(prediction *structpb.Value) []float32 {
	embeddings := prediction.GetStructValue().GetFields()["embeddings"].GetStructValue()
	values := embeddings.GetFields()["values"].GetListValue().GetValues()

	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v.GetNumberValue())
	}
	return result
}
