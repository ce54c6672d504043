package linear

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the linear observer Graft node.
const NodeID graft.ID = "adapter.observer.linear"

func init() {
	graft.Register(graft.Node[*Observer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Observer, error) {
			return NewObserver(nil), nil
		},
	})
}
