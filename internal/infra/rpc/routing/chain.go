package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/core/metrics"
)

// ErrNoCandidates is the failure of a chain that had nothing to try.
var ErrNoCandidates = errors.New("no candidates available")

// Candidate is one of several semantically equivalent remote listings.
type Candidate[T any] func(ctx context.Context) domain.Result[[]T]

// TryChain evaluates candidates left to right and returns the best outcome:
// a non-empty success (returned as soon as it is seen), else the first empty
// success, else the most recent failure, else ErrNoCandidates.
func TryChain[T any](ctx context.Context, candidates ...Candidate[T]) domain.Result[[]T] {
	var (
		emptyOK  *domain.Result[[]T]
		lastFail *domain.Result[[]T]
	)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			res := domain.Fail[[]T](err)
			if emptyOK == nil {
				lastFail = &res
			}
			break
		}

		res := attempt(ctx, candidate)
		switch {
		case res.IsOk() && len(res.Value()) > 0:
			metrics.ChainOutcomesTotal.WithLabelValues("non_empty").Inc()
			return res
		case res.IsOk():
			if emptyOK == nil {
				empty := domain.Ok([]T{})
				emptyOK = &empty
			}
		default:
			if emptyOK == nil {
				lastFail = &res
			}
		}
	}

	switch {
	case emptyOK != nil:
		metrics.ChainOutcomesTotal.WithLabelValues("empty").Inc()
		return *emptyOK
	case lastFail != nil:
		metrics.ChainOutcomesTotal.WithLabelValues("failure").Inc()
		return *lastFail
	default:
		metrics.ChainOutcomesTotal.WithLabelValues("no_candidates").Inc()
		return domain.Fail[[]T](ErrNoCandidates)
	}
}

// attempt runs one candidate, turning a panic into a failed Result.
func attempt[T any](ctx context.Context, candidate Candidate[T]) (res domain.Result[[]T]) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Fail[[]T](&domain.NetworkError{Cause: fmt.Errorf("panic in chain candidate: %v", r)})
		}
	}()
	return candidate(ctx)
}
