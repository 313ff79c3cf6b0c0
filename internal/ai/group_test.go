package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	resp  string
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.resp, s.err
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func (s *stubEmbedder) ModelName() string { return "stub" }

func TestGroupGeneratorFallsThroughInOrder(t *testing.T) {
	first := &stubGenerator{err: errors.New("rate limited")}
	second := &stubGenerator{resp: "ok"}
	third := &stubGenerator{resp: "never reached"}
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "first", Generator: first},
		{Name: "second", Generator: second},
		{Name: "third", Generator: third},
	})

	resp, err := group.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls)
	require.Zero(t, third.calls)
}

func TestGroupGeneratorSurfacesLastError(t *testing.T) {
	lastErr := errors.New("quota exceeded")
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "first", Generator: &stubGenerator{err: errors.New("down")}},
		{Name: "second", Generator: &stubGenerator{err: lastErr}},
	})

	_, err := group.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, lastErr)
}

func TestGroupGeneratorEmptyIsNil(t *testing.T) {
	require.Nil(t, NewGroupGenerator(nil))
	require.Nil(t, NewGroupGenerator([]GeneratorEntry{}))
}

func TestGroupEmbedderFallsThroughInOrder(t *testing.T) {
	first := &stubEmbedder{err: errors.New("down")}
	second := &stubEmbedder{vec: []float32{0.1, 0.2}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "first", Embedder: first},
		{Name: "second", Embedder: second},
	})

	vec, err := group.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2}, vec)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls)
	require.Equal(t, "first|second", group.ModelName())
}

func TestNewProviderUnknownName(t *testing.T) {
	_, err := NewProvider("not-a-provider", nil)
	require.Error(t, err)
	_, err = NewProvider("", nil)
	require.Error(t, err)
}
