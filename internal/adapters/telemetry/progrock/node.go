package progrock

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the progress observer node.
const NodeID graft.ID = "adapter.telemetry.progrock"

func init() {
	graft.Register(graft.Node[*Observer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Observer, error) {
			return New(), nil
		},
	})
}
