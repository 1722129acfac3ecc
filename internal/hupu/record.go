package hupu

// Stat keys inside a node's infoJson.
const (
	statMatchScore = "basketball_match"
	statMinutes    = "minutes"
	statPoints     = "pts"
	statAssists    = "ast"
	statRebounds   = "reb"
	statSteals     = "stl"
	statBlocks     = "blk"
	statPlusMinus  = "plusMinus"
)

// NewPartialRecord builds the stat record for one player section of entry.
// Missing stats read as "".
func NewPartialRecord(entry NodeEntry, node PlayerNode) PartialRecord {
	info := node.Info
	return PartialRecord{
		OutBizNo:     entry.OutBizNo,
		Team:         entry.GroupName,
		RootNodeID:   entry.RootNodeID,
		PlayerName:   node.Name,
		MatchScore:   FirstValue(info, statMatchScore),
		Minutes:      FirstValue(info, statMinutes),
		Pts:          FirstValue(info, statPoints),
		Ast:          FirstValue(info, statAssists),
		Reb:          FirstValue(info, statRebounds),
		Stl:          FirstValue(info, statSteals),
		Blk:          FirstValue(info, statBlocks),
		PlusMinus:    FirstValue(info, statPlusMinus),
		CommentBizID: node.BizID(),
	}
}

// PlayerRecords builds partial records for every player section, skipping
// referees and coaches.
func PlayerRecords(entry NodeEntry, nodes []PlayerNode) []PartialRecord {
	records := make([]PartialRecord, 0, len(nodes))
	for _, node := range nodes {
		if !node.IsPlayer() {
			continue
		}
		records = append(records, NewPartialRecord(entry, node))
	}
	return records
}
