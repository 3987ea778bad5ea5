package store

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/attuneapp/attune/internal/log"
)

func TestEmbed_RequestsVectorDimension(t *testing.T) {
	ctx := context.Background()
	g := genkit.Init(ctx)

	var captured *ai.EmbedRequest
	embedder := genkit.DefineEmbedder(g, "mock/recording-embedder", &ai.EmbedderOptions{
		Label:      "Recording Embedder",
		Dimensions: VectorDimension,
	}, func(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
		captured = req
		return &ai.EmbedResponse{
			Embeddings: []*ai.Embedding{{Embedding: make([]float32, VectorDimension)}},
		}, nil
	})

	st := &MemoryStore{embedder: embedder, logger: log.NewNop()}
	vec, err := st.embed(ctx, "prefers oat milk in coffee")
	if err != nil {
		t.Fatalf("embed() error = %v", err)
	}
	if got := len(vec.Slice()); got != VectorDimension {
		t.Errorf("vector length = %d, want %d", got, VectorDimension)
	}

	if captured == nil {
		t.Fatal("embedder was not called")
	}
	cfg, ok := captured.Options.(*genai.EmbedContentConfig)
	if !ok {
		t.Fatalf("Options type = %T, want *genai.EmbedContentConfig", captured.Options)
	}
	if cfg.OutputDimensionality == nil {
		t.Fatal("OutputDimensionality not set")
	}
	if *cfg.OutputDimensionality != int32(VectorDimension) {
		t.Errorf("OutputDimensionality = %d, want %d", *cfg.OutputDimensionality, VectorDimension)
	}
}
