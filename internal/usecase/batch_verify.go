package usecase

import (
	"context"
	"time"

	"ipshield/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	batchGroupSize    = 3
	defaultBatchPause = 500 * time.Millisecond
)

// BatchVerify verifies items in groups of three with a fixed pause between
// groups. Items are updated in place and the returned map holds each item's
// derived status. Items that fail validation, and items left when ctx is
// done, are marked ERROR without a verification call.
func (o *Orchestrator) BatchVerify(ctx context.Context, items []domain.ContentItem) map[domain.ItemID]domain.ContentStatus {
	statuses := make(map[domain.ItemID]domain.ContentStatus, len(items))
	for start := 0; start < len(items); start += batchGroupSize {
		if start > 0 {
			_ = o.sleep(ctx, o.batchPause)
		}
		if err := ctx.Err(); err != nil {
			o.Logger.WarnContext(ctx, "batch verification stopped", "verified", start, "remaining", len(items)-start, "error", err)
			for i := start; i < len(items); i++ {
				items[i].ResetOutputs()
				items[i].MarkError()
				statuses[items[i].ID] = items[i].Status
			}
			break
		}
		end := min(start+batchGroupSize, len(items))

		var g errgroup.Group
		g.SetLimit(batchGroupSize)
		for i := start; i < end; i++ {
			item := &items[i]
			g.Go(func() error {
				item.ResetOutputs()
				if err := item.Validate(); err != nil {
					item.MarkError()
					return nil
				}
				outcome := o.verifier.Verify(ctx, domain.VerifyInput{
					ContentURL:  item.URL,
					ContentType: item.Type,
					Title:       item.Title,
				})
				item.ApplyVerification(outcome.Result)
				return nil
			})
		}
		_ = g.Wait()

		for i := start; i < end; i++ {
			statuses[items[i].ID] = items[i].Status
		}
	}
	return statuses
}
