// Package embedding turns text into fixed-length vectors via an external
// embedding service.
package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lectio-dev/lectio/internal/domain"
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	// EmbedQuery embeds a single piece of text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts one service call per text, returning a
	// same-length, order-preserving slice of vectors. Any failure aborts the
	// batch; a silently missing vector would corrupt chunk alignment.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model names the embedding model this embedder is bound to.
	Model() string
}

// RetryPolicy bounds retries for transient embedding failures.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
}

// DefaultRetryPolicy retries transient failures up to 3 attempts total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// retryingEmbedder wraps an Embedder with bounded exponential backoff.
// Only SERVICE_UNAVAILABLE failures are retried; validation and model
// errors are permanent.
type retryingEmbedder struct {
	inner  Embedder
	policy RetryPolicy
}

// WithRetry wraps e so transient failures are retried per policy. The final
// failure after retries propagates to the caller.
func WithRetry(e Embedder, policy RetryPolicy) Embedder {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &retryingEmbedder{inner: e, policy: policy}
}

func (r *retryingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := r.retry(ctx, func() error {
		var err error
		vector, err = r.inner.EmbedQuery(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (r *retryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := r.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (r *retryingEmbedder) Model() string {
	return r.inner.Model()
}

func (r *retryingEmbedder) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.policy.InitialInterval
	policy := backoff.WithMaxRetries(backoff.WithContext(bo, ctx), r.policy.MaxAttempts-1)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if domain.IsServiceUnavailable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}
