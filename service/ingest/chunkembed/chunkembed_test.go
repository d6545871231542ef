package chunkembed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeVectorDim = 8

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, fakeVectorDim)
		vectors[i][0] = float32(len(texts[i]))
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, fakeVectorDim), nil
}

func TestChunkAndEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input yields empty result", func(t *testing.T) {
		embedder := &fakeEmbedder{}
		engine := NewEngine(embedder)

		chunks, err := engine.ChunkAndEmbed(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, chunks)
		assert.Zero(t, embedder.calls)

		chunks, err = engine.ChunkAndEmbed(ctx, "   \n\n  ")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("each chunk carries text and a vector of constant dimensionality", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{})

		text := strings.Repeat("This is a sentence about deadlines. ", 200)
		chunks, err := engine.ChunkAndEmbed(ctx, text)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.Greater(t, len(chunks), 1)

		for _, chunk := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(chunk.Text))
			assert.Len(t, chunk.Vector, fakeVectorDim)
			assert.LessOrEqual(t, len(chunk.Text), defaultChunkSize)
		}
	})

	t.Run("short text yields a single chunk", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{})

		chunks, err := engine.ChunkAndEmbed(ctx, "The project deadline is March 5th.")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "The project deadline is March 5th.", chunks[0].Text)
	})

	t.Run("auth error is classified as fatal", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{
			err: errors.New("API returned unexpected status code: 401 invalid api key"),
		})

		_, err := engine.ChunkAndEmbed(ctx, "some text")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmbeddingAuth)
		assert.NotErrorIs(t, err, ErrEmbeddingQuota)
	})

	t.Run("quota error is classified as retryable", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{
			err: errors.New("API returned unexpected status code: 429 rate limit exceeded"),
		})

		_, err := engine.ChunkAndEmbed(ctx, "some text")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmbeddingQuota)
	})

	t.Run("unknown error stays unclassified", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{
			err: errors.New("connection reset by peer"),
		})

		_, err := engine.ChunkAndEmbed(ctx, "some text")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmbeddingAuth)
		assert.NotErrorIs(t, err, ErrEmbeddingQuota)
	})
}
