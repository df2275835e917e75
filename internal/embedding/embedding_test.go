package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
		delta    float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"similar", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"different lengths", Vector{1, 0}, Vector{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f (±%f)", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(0)

	a, err := e.Embed(ctx, "the sky is blue")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := e.Embed(ctx, "the sky is blue")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if len(a) != e.Dims() || e.Dims() != 384 {
		t.Fatalf("expected 384 dims, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical vectors for identical text, differ at %d", i)
		}
	}
}

func TestHashEmbedderUnitLength(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(64)

	vec, err := e.Embed(ctx, "normalize me")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 0.001 {
		t.Errorf("expected unit-length vector, got norm %f", math.Sqrt(norm))
	}
}

func TestHashEmbedderDistinguishesTexts(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(0)

	a, _ := e.Embed(ctx, "alpha")
	b, _ := e.Embed(ctx, "beta")

	if CosineSimilarity(a, b) > 0.999 {
		t.Error("expected different texts to map to different vectors")
	}
}

func TestNewFromEnv_Disabled(t *testing.T) {
	t.Setenv("AGENT_RECALL_EMBED_PROVIDER", "")
	e := NewFromEnv()
	if e != nil {
		t.Error("expected nil embedder when no provider configured")
	}
}

func TestNewFromEnv_Mock(t *testing.T) {
	t.Setenv("AGENT_RECALL_EMBED_PROVIDER", "mock")
	e := NewFromEnv()
	if e == nil {
		t.Fatal("expected mock embedder")
	}
	if e.Dims() != 384 {
		t.Errorf("expected 384 dims, got %d", e.Dims())
	}
}
