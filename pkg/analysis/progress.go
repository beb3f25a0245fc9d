package analysis

import "context"

type Stage string

const (
	StageExtracting  Stage = "extracting"
	StageSummarizing Stage = "summarizing"
)

type ProgressFunc func(stage Stage)

type progressKey struct{}

// WithProgress attaches a callback the chain invokes as it enters each stage.
// The callback runs on the analyzing goroutine.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func report(ctx context.Context, stage Stage) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(stage)
	}
}
