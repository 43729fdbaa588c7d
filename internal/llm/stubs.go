package llm

import (
	"context"
	"fmt"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
)

func notImplemented(id string) Caller {
	return CallerFunc(func(_ context.Context, _ Request) (string, error) {
		return "", fmt.Errorf("%w: %s", apperror.ErrProviderNotImplemented, id)
	})
}
