package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taxdeedflow/comps-cli/internal/ingest"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

var (
	batchInput       string
	batchConcurrency int
	batchLimit       int
	batchSave        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate many properties concurrently",
	Long:  "Reads {properties: [...]} where each entry is an analysis request plus optional opening_bid, target_roi, and liens. Prints one JSON result per property in input order.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := ingest.ReadBatch(batchInput)
		if err != nil {
			return err
		}

		needStore := batchSave
		for _, p := range b.Properties {
			if len(p.Candidates) == 0 {
				needStore = true
				break
			}
		}
		env, err := initEnv(ctx, "batch", needStore, batchSave)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrency
		}

		results, err := processBatch(ctx, b.Properties, batchLimit, concurrency, env.Service.Evaluate)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "path to the batch document (.json, .yaml)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max properties evaluated at once (default from config)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of properties to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist analyses and recommendations to the store")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// evaluateFunc is the callback signature for evaluating one property.
type evaluateFunc func(ctx context.Context, req valuation.PropertyRequest) (*valuation.Evaluation, error)

// batchResult is the outcome for one property. Exactly one of Evaluation
// and Error is set.
type batchResult struct {
	PropertyID string                `json:"property_id"`
	Evaluation *valuation.Evaluation `json:"evaluation,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// processBatch applies limit, then evaluates properties concurrently. A
// failed property is recorded in its result and never aborts the others.
func processBatch(ctx context.Context, props []valuation.PropertyRequest, limit, concurrency int, evaluate evaluateFunc) ([]batchResult, error) {
	if len(props) == 0 {
		zap.L().Info("no properties to process")
		return nil, nil
	}

	if limit > 0 && len(props) > limit {
		props = props[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("properties", len(props)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	results := make([]batchResult, len(props))

	for i, p := range props {
		g.Go(func() error {
			log := zap.L().With(zap.String("property_id", p.Subject.ID))
			results[i].PropertyID = p.Subject.ID

			if err := gctx.Err(); err != nil {
				failed.Add(1)
				results[i].Error = err.Error()
				return nil
			}

			ev, err := evaluate(gctx, p)
			if err != nil {
				failed.Add(1)
				results[i].Error = err.Error()
				log.Error("evaluation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			results[i].Evaluation = ev
			fields := []zap.Field{zap.String("confidence", string(ev.Analysis.ConfidenceLevel))}
			if ev.Analysis.ARV != nil {
				fields = append(fields, zap.Float64("arv", *ev.Analysis.ARV))
			}
			if ev.Recommendation != nil {
				fields = append(fields, zap.Float64("moderate_bid", ev.Recommendation.BidRange.Moderate))
			}
			log.Info("evaluation complete", fields...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}
