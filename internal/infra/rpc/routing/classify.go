package routing

import (
	"context"
	"errors"

	"github.com/vietddude/storefront/internal/core/domain"
)

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry    ErrorAction = iota // transient; the same call may succeed later
	ActionFailover                    // this provider is refusing us; try another
	ActionFatal                       // the request itself is wrong; do not repeat it
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFailover:
		return "failover"
	case ActionFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifyError determines the action for a classified error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	if errors.Is(err, context.Canceled) {
		return ActionFatal
	}

	var he *domain.HTTPError
	if errors.As(err, &he) {
		switch {
		case he.Code == 429 || he.Code == 403:
			return ActionFailover
		case he.Temporary():
			return ActionRetry
		default:
			return ActionFatal
		}
	}

	if domain.IsDecode(err) {
		return ActionFatal
	}

	// Network errors, timeouts and anything unclassified
	return ActionRetry
}
