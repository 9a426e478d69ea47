// Package bridge translates named tool invocations into tools/call exchanges
// over a session, including streamed partial results and cancellation.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/jsonrpc"

	"github.com/viant/mcpadapter/internal/collection"
	"github.com/viant/mcpadapter/schema"
)

// Router is the client-side jsonrpc handler. It fans progress notifications
// out to in-flight streamed invocations and surfaces tool list change signals.
type Router struct {
	progress *collection.SyncMap[schema.ProgressToken, chan *schema.ProgressNotificationParams]

	mux               sync.RWMutex
	onToolListChanged func()
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{progress: collection.NewSyncMap[schema.ProgressToken, chan *schema.ProgressNotificationParams]()}
}

// OnToolListChanged registers the callback invoked when the server announces
// that its tool list changed.
func (r *Router) OnToolListChanged(callback func()) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.onToolListChanged = callback
}

// Serve rejects server-to-client requests; this client only consumes tools.
func (r *Router) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", request.Method), nil)
}

// OnNotification routes server notifications by method.
func (r *Router) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationProgress:
		params := &schema.ProgressNotificationParams{}
		if err := json.Unmarshal(notification.Params, params); err != nil {
			return
		}
		if channel, ok := r.progress.Get(params.ProgressToken); ok {
			select {
			case channel <- params:
			default:
				// slow consumer; progress is advisory so dropping is safe
			}
		}
	case schema.MethodNotificationToolsList:
		r.mux.RLock()
		callback := r.onToolListChanged
		r.mux.RUnlock()
		if callback != nil {
			callback()
		}
	}
}

// subscribe registers a progress channel for a token; unsubscribe releases it.
func (r *Router) subscribe(token schema.ProgressToken) chan *schema.ProgressNotificationParams {
	channel := make(chan *schema.ProgressNotificationParams, 32)
	r.progress.Put(token, channel)
	return channel
}

func (r *Router) unsubscribe(token schema.ProgressToken) {
	r.progress.Delete(token)
}
