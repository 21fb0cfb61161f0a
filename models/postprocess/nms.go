package postprocess

import (
	"context"
	"sort"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-yolo/images"
)

// DefaultIoUThreshold is the overlap threshold above which a lower-scoring
// candidate is suppressed.
const DefaultIoUThreshold float32 = 0.5

// Options defines parameters for candidate selection.
type Options struct {
	// MaxOutputSize caps the number of selected boxes. A value <= 0 means
	// "return all": suppression is skipped entirely and every slot index is
	// returned in original order, independent of scores. That is a distinct
	// documented mode, not NMS with an infinite cap - the two paths produce
	// different orderings.
	MaxOutputSize int `json:"max_output_size"`
	// IoUThreshold is the overlap threshold for suppression. Strictly greater
	// suppresses; exactly equal does not.
	IoUThreshold float32 `json:"iou_threshold"`
	// ScoreThreshold rejects candidates that do not exceed it. The default is
	// negative infinity, i.e. no filtering.
	ScoreThreshold float32 `json:"score_threshold"`
}

// DefaultOptions returns the standard selection parameters: no output cap,
// IoU threshold 0.5, no score filtering.
func DefaultOptions() Options {
	return Options{
		MaxOutputSize:  0,
		IoUThreshold:   DefaultIoUThreshold,
		ScoreThreshold: math32.Inf(-1),
	}
}

// Suppressor selects the surviving slot indices from a batch of candidate
// boxes and scores. Implementations must be safe for concurrent use; the
// greedy reference implementation is stateless.
type Suppressor interface {
	// Select runs selection synchronously and returns the kept slot indices
	// in selection order.
	Select(boxes []images.Rect, scores []float32, opts Options) []int
}

// ContextSuppressor extends Suppressor with a cancellable variant. The
// selection step is the decode pipeline's only suspension point: decoders
// built on an accelerator-bound suppressor route cancellation through here
// while sharing every other pipeline step with the blocking path. Both
// variants must produce identical indices for identical inputs.
type ContextSuppressor interface {
	Suppressor

	// SelectContext behaves exactly like Select but observes ctx between
	// selections, returning ctx.Err() when cancelled.
	SelectContext(ctx context.Context, boxes []images.Rect, scores []float32, opts Options) ([]int, error)
}

// Greedy is the standard greedy NMS suppressor: repeatedly keep the remaining
// candidate with the highest score above the score threshold, then discard
// every remaining candidate whose IoU with it exceeds the IoU threshold.
// O(N^2) worst case, which is acceptable at YOLO candidate counts (~8400).
type Greedy struct{}

var _ ContextSuppressor = Greedy{}

// Select implements Suppressor.
func (g Greedy) Select(boxes []images.Rect, scores []float32, opts Options) []int {
	kept, _ := g.run(nil, boxes, scores, opts)
	return kept
}

// SelectContext implements ContextSuppressor.
func (g Greedy) SelectContext(
	ctx context.Context,
	boxes []images.Rect,
	scores []float32,
	opts Options,
) ([]int, error) {
	return g.run(ctx, boxes, scores, opts)
}

func (g Greedy) run(
	ctx context.Context,
	boxes []images.Rect,
	scores []float32,
	opts Options,
) ([]int, error) {
	n := len(boxes)

	// "Return all" mode: no cap was requested, so every slot survives in raw
	// order regardless of score.
	if opts.MaxOutputSize <= 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	// Visit candidates in descending score order; ties keep slot order so the
	// selection is deterministic.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	kept := make([]int, 0, opts.MaxOutputSize)
	suppressed := make([]bool, n)

	for _, i := range order {
		if len(kept) >= opts.MaxOutputSize {
			break
		}
		if suppressed[i] || !(scores[i] > opts.ScoreThreshold) {
			continue
		}

		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		kept = append(kept, i)

		for _, j := range order {
			if suppressed[j] || j == i {
				continue
			}
			// Strictly greater suppresses; IoU exactly at the threshold keeps
			// both boxes.
			if images.CalculateIoU(boxes[i], boxes[j]) > opts.IoUThreshold {
				suppressed[j] = true
			}
		}
		suppressed[i] = true
	}

	return kept, nil
}

// Select runs greedy NMS with the package's stateless suppressor. It is the
// blocking entry point decoders use by default.
func Select(boxes []images.Rect, scores []float32, opts Options) []int {
	return Greedy{}.Select(boxes, scores, opts)
}
