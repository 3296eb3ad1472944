package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	accessUsecase "github.com/allisson/grants/internal/access/usecase"
)

// RunExpireRequests expires every granted access request whose window has
// elapsed. One-shot variant of the in-process sweep, for cron-style
// scheduling. Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunExpireRequests(
	ctx context.Context,
	accessUseCase accessUsecase.AccessUseCase,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	logger.Info("expiring overdue access requests")

	count, err := accessUseCase.ExpireOverdue(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire overdue access requests: %w", err)
	}

	if format == "json" {
		payload, err := json.MarshalIndent(map[string]any{"count": count}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Fprintln(out, string(payload))
	} else {
		fmt.Fprintf(out, "Expired %d access request(s)\n", count)
	}

	logger.Info("expiry completed", slog.Int("count", count))
	return nil
}
