package store

import (
	"time"

	"github.com/fortuna/scoretree/internal/hupu"
)

// StoredNode is a node entry as persisted in node_entries.
type StoredNode struct {
	hupu.NodeEntry
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// StoredRecord is a final record as persisted in player_records.
type StoredRecord struct {
	RecordID    int64            `json:"recordId"`
	Record      hupu.FinalRecord `json:"record"`
	HarvestedAt time.Time        `json:"harvestedAt"`
}
