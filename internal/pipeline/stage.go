package pipeline

import "context"

// Stage transforms one Item into another. Run places a stage-scoped logger
// in the context; stages read it with logging.FromContext.
type Stage interface {
	Name() string
	Process(context.Context, Item) (Item, error)
}

type funcStage struct {
	name string
	fn   func(context.Context, Item) (Item, error)
}

// Func adapts fn into a Stage so callers can add their own transforms.
func Func(name string, fn func(context.Context, Item) (Item, error)) Stage {
	return funcStage{name: name, fn: fn}
}

func (s funcStage) Name() string { return s.name }

func (s funcStage) Process(ctx context.Context, in Item) (Item, error) {
	return s.fn(ctx, in)
}
