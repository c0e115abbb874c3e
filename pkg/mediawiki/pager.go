package mediawiki

import (
	"context"
	"iter"
)

// PageState is the state of a continuation-token pagination sequence.
// A state that is not Exhausted is active and holds the next request to
// issue, which already carries the latest continuation token.
type PageState struct {
	Request   Request
	Exhausted bool
}

// Start returns the active state for a new sequence.
func Start(req Request) PageState {
	return PageState{Request: req}
}

// Result is one item of a paged sequence.
type Result[T any] struct {
	Query T
	Err   error
}

// Advance issues the request held by an active state and returns the next
// state together with the produced item. ok is false once the state is
// exhausted; no request is made in that case.
//
// A transport failure is produced as the last item. A response without a
// continuation token is produced and exhausts the state. Otherwise the token
// is merged into the held request and the state stays active.
func Advance[T any](ctx context.Context, c *Client, s PageState) (next PageState, item Result[T], ok bool) {
	if s.Exhausted {
		return s, item, false
	}

	resp, err := Send[T](ctx, c, s.Request)
	if err != nil {
		return PageState{Request: s.Request, Exhausted: true}, Result[T]{Err: err}, true
	}
	if resp.Continue == nil {
		return PageState{Request: s.Request, Exhausted: true}, Result[T]{Query: resp.Query}, true
	}
	return PageState{Request: s.Request.WithContinuation(resp.Continue)}, Result[T]{Query: resp.Query}, true
}

// Pages lazily walks a paginated query starting at req. Each iteration makes
// one HTTP call. Breaking out of the loop stops the sequence without further
// requests.
func Pages[T any](ctx context.Context, c *Client, req Request) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		state := Start(req)
		for {
			next, item, ok := Advance[T](ctx, c, state)
			if !ok {
				return
			}
			state = next
			if !yield(item.Query, item.Err) {
				return
			}
		}
	}
}
