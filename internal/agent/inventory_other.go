//go:build !windows

package agent

import (
	"context"

	"infocollect/internal/shared"
)

func collectInventory(ctx context.Context) (shared.Value, error) {
	return shared.Null(), nil
}
