package hupu

import "strconv"

// NodeEntry is one discovered match/team grouping.
// The JSON shape matches the nba_root_ids.json side store.
type NodeEntry struct {
	OutBizNo   int64  `json:"outBizNo"`
	GroupName  string `json:"groupName"`
	RootNodeID int64  `json:"rootNodeId"`
}

// Key identifies a node entry; entries are unique by (outBizNo, rootNodeId).
func (e NodeEntry) Key() string {
	return strconv.FormatInt(e.OutBizNo, 10) + ":" + strconv.FormatInt(e.RootNodeID, 10)
}

// Row renders the entry in discovery CSV column order.
func (e NodeEntry) Row() []string {
	return []string{
		strconv.FormatInt(e.OutBizNo, 10),
		e.GroupName,
		strconv.FormatInt(e.RootNodeID, 10),
	}
}

// NodeHeader is the discovery output column order.
var NodeHeader = []string{"outBizNo", "groupName", "rootNodeId"}

// Group is one entry of the sub-groups response.
type Group struct {
	GroupName  string
	RootNodeID int64
}

// PlayerNode is a raw section of the score-tree response.
type PlayerNode struct {
	Name string
	Info map[string]interface{}
}

// PartialRecord holds player stats before comment enrichment.
type PartialRecord struct {
	OutBizNo   int64  `json:"outBizNo"`
	Team       string `json:"team"`
	RootNodeID int64  `json:"rootNodeId"`
	PlayerName string `json:"playerName"`
	MatchScore string `json:"matchScore"`
	Minutes    string `json:"minutes"`
	Pts        string `json:"pts"`
	Ast        string `json:"ast"`
	Reb        string `json:"reb"`
	Stl        string `json:"stl"`
	Blk        string `json:"blk"`
	PlusMinus  string `json:"plusMinus"`

	// CommentBizID is nil when the node exposes no selfBizId.
	CommentBizID *int64 `json:"-"`
}

// CommentSlots is the fixed number of comment columns on every record.
const CommentSlots = 3

// FinalRecord is the persistable output row.
type FinalRecord struct {
	PartialRecord
	Comments [CommentSlots]string `json:"-"`
}

// Complete attaches comments to a partial record.
func (p PartialRecord) Complete(comments [CommentSlots]string) FinalRecord {
	return FinalRecord{PartialRecord: p, Comments: comments}
}

// RecordHeader is the output record column order.
var RecordHeader = []string{
	"outBizNo", "team", "rootNodeId", "playerName", "matchScore", "minutes",
	"pts", "ast", "reb", "stl", "blk", "plusMinus",
	"comment1", "comment2", "comment3",
}

// Row renders the record in RecordHeader order.
func (r FinalRecord) Row() []string {
	return []string{
		strconv.FormatInt(r.OutBizNo, 10),
		r.Team,
		strconv.FormatInt(r.RootNodeID, 10),
		r.PlayerName,
		r.MatchScore,
		r.Minutes,
		r.Pts,
		r.Ast,
		r.Reb,
		r.Stl,
		r.Blk,
		r.PlusMinus,
		r.Comments[0],
		r.Comments[1],
		r.Comments[2],
	}
}

// Fields returns the record as a flat map keyed by RecordHeader names.
func (r FinalRecord) Fields() map[string]string {
	row := r.Row()
	out := make(map[string]string, len(RecordHeader))
	for i, key := range RecordHeader {
		out[key] = row[i]
	}
	return out
}
