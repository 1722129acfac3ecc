package hupu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Section type tags that are not players.
const (
	typeReferee = "referee"
	typeCoach   = "coach"
)

// Comment is one entry of the hottest-comments response.
type Comment struct {
	Content string
}

// ParseSubGroups extracts groups from a sub-groups response.
// Groups without a numeric rootNodeId are dropped.
func ParseSubGroups(body []byte) ([]Group, error) {
	payload, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	var groups []Group
	for _, raw := range extractArray(payload, "data") {
		group, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		rootID, ok := extractInt64(group, "rootNodeId")
		if !ok {
			continue
		}
		groups = append(groups, Group{
			GroupName:  extractString(group, "groupName"),
			RootNodeID: rootID,
		})
	}
	return groups, nil
}

// ParseScoreTree extracts the node sections of a score-tree response.
// The whole payload is rejected unless data.nodePageResult.data is a list.
func ParseScoreTree(body []byte) ([]PlayerNode, error) {
	payload, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing data object")
	}
	page, ok := data["nodePageResult"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing data.nodePageResult object")
	}
	sections, ok := page["data"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing data.nodePageResult.data list")
	}

	nodes := make([]PlayerNode, 0, len(sections))
	for _, raw := range sections {
		section, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		node := extractMap(section, "node")
		nodes = append(nodes, PlayerNode{
			Name: extractString(node, "name"),
			Info: extractMap(node, "infoJson"),
		})
	}
	return nodes, nil
}

// ParseHottestComments resolves the comment list of a hottest-comments response.
//
// Two shapes are accepted, in order: {success: true, data: [...]} and the
// legacy {data: {hotCommentModels: [...]}}. The legacy branch can go once the
// endpoint stops serving it.
func ParseHottestComments(body []byte) ([]Comment, error) {
	payload, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	var list []interface{}
	if success, _ := payload["success"].(bool); success && hasKey(payload, "data") {
		list, _ = payload["data"].([]interface{})
	} else {
		list = extractArray(extractMap(payload, "data"), "hotCommentModels")
	}

	comments := make([]Comment, 0, len(list))
	for _, raw := range list {
		item, _ := raw.(map[string]interface{})
		comments = append(comments, Comment{Content: render(item["commentContent"])})
	}
	return comments, nil
}

// IsPlayer reports whether a section describes a player rather than staff.
func (n PlayerNode) IsPlayer() bool {
	switch FirstValue(n.Info, "type") {
	case typeReferee, typeCoach:
		return false
	}
	return true
}

// BizID returns the selfBizId used for comment lookup, or nil when absent.
// A present but non-numeric selfBizId is deliberately dropped as absent: the
// comments endpoint only takes numeric ids, so no request is issued and the
// record completes with empty comments.
func (n PlayerNode) BizID() *int64 {
	raw, ok := n.Info["selfBizId"]
	if !ok || raw == nil {
		return nil
	}
	if list, ok := raw.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		raw = list[0]
	}
	id, ok := toInt64(raw)
	if !ok {
		return nil
	}
	return &id
}

// FirstValue reads a list-valued stat: the first element rendered as a string,
// or "" when the key is missing or the list is empty. A scalar stored directly
// under the key is rendered as-is.
func FirstValue(info map[string]interface{}, key string) string {
	v, ok := info[key]
	if !ok {
		return ""
	}
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return ""
		}
		return render(list[0])
	}
	return render(v)
}

// Helper functions

func decodeObject(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, preview(body))
	}
	if payload == nil {
		return nil, fmt.Errorf("response is not an object (body: %s)", preview(body))
	}
	return payload, nil
}

func render(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func hasKey(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

func extractInt64(m map[string]interface{}, key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
		f, err := val.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		return int64(val), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func preview(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
