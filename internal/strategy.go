package internal

import "context"

// Kind names a dispatch strategy. It is persisted in route snapshots.
type Kind string

// Dispatch strategy kinds.
const (
	KindController Kind = "controller"
	KindCallback   Kind = "callback"
	KindRedirect   Kind = "redirect"
	KindView       Kind = "view"
	KindResponse   Kind = "response"
)

// Strategy performs the action behind a matched route.
// Implementations interpret the Dispatch target; the Dispatch itself only
// coerces what Exec returns.
type Strategy interface {
	Kind() Kind
	Exec(ctx context.Context, d *Dispatch) (ExecResult, error)
}

// StrategyResolver returns the strategy for a persisted kind.
type StrategyResolver func(kind Kind) (Strategy, error)

// ExecResult is what a strategy produced. It is one of ResponseResult,
// DataResult or EmptyResult.
type ExecResult interface {
	execResult()
}

// ResponseResult carries a response built by the strategy. It is returned as is.
type ResponseResult struct {
	Response *Response
}

// DataResult carries raw data encoded with the configured return type.
type DataResult struct {
	Data any
}

// EmptyResult means the strategy wrote to the output sink, if anywhere.
type EmptyResult struct{}

func (ResponseResult) execResult() {}
func (DataResult) execResult()     {}
func (EmptyResult) execResult()    {}

// ResultOf wraps a value returned by user code: a *Response, nil, or data.
func ResultOf(v any) ExecResult {
	switch r := v.(type) {
	case nil:
		return EmptyResult{}
	case *Response:
		if r == nil {
			return EmptyResult{}
		}
		return ResponseResult{Response: r}
	case ExecResult:
		return r
	default:
		return DataResult{Data: v}
	}
}
