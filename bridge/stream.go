package bridge

import (
	"context"
	"sync"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/schema"
)

// Update is the terminal outcome of a streamed invocation.
type Update struct {
	Result *mcpschema.CallToolResult
	Err    error
}

// Stream delivers partial results of one tools/call invocation in arrival
// order, then exactly one terminal update.
type Stream struct {
	token     schema.ProgressToken
	requestId uint64
	progress  chan *schema.ProgressNotificationParams
	result    chan Update
	done      chan struct{}
	cancel    context.CancelFunc
	notify    func(reason string)
	once      sync.Once
}

// Progress returns the partial result channel, or nil when the server does not
// stream. The channel is never closed; consumers select against Done.
func (s *Stream) Progress() <-chan *schema.ProgressNotificationParams {
	return s.progress
}

// Done is closed once the terminal update is available.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Cancel abandons the invocation: the server is notified best-effort and the
// in-flight request context is cancelled.
func (s *Stream) Cancel(reason string) {
	s.once.Do(func() {
		if s.notify != nil {
			s.notify(reason)
		}
		s.cancel()
	})
}

// Close releases the stream, cancelling the invocation when it is still in
// flight. Closing a finished stream is a no-op.
func (s *Stream) Close() error {
	select {
	case <-s.done:
	default:
		s.Cancel("stream closed")
	}
	return nil
}

// Wait blocks for the terminal update, discarding progress. It may be called
// at most once.
func (s *Stream) Wait(ctx context.Context) (*mcpschema.CallToolResult, error) {
	select {
	case <-ctx.Done():
		s.Cancel(ctx.Err().Error())
		return nil, fault.Wrap(fault.Invocation, "stream abandoned", ctx.Err())
	case update := <-s.result:
		return update.Result, update.Err
	}
}
