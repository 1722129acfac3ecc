package hupu

import (
	"context"
	"fmt"
	"strings"
)

const (
	// BaseURL is the Hupu mobile games API host.
	BaseURL = "https://games.mobileapi.hupu.com"

	subGroupsPath = "/1/8.0.99/bplcommentapi/bpl/score_tree/getSubGroups?outBizNo=%d&outBizType=basketball_match"
	scoreTreePath = "/1/8.2.99/bplcommentapi/bff/bpl/score_tree/groupAndSubNodes?nodeId=%d&queryType=hot&page=1&pageSize=20"
	commentsPath  = "/1/8.2.99/bplcommentapi/bpl/comment/list/primarySingleRow/hottest?outBizNo=%d&outBizType=basketball_item&clientCode="
)

// Endpoint families, used as labels by the fetch layer.
const (
	EndpointSubGroups = "sub_groups"
	EndpointScoreTree = "score_tree"
	EndpointComments  = "comments"
)

// Fetcher issues a GET and returns the raw response body.
// Implementations must not deduplicate repeated URLs.
type Fetcher interface {
	Get(ctx context.Context, endpoint, url string) ([]byte, error)
}

// Client builds Hupu endpoint URLs and parses their responses.
type Client struct {
	baseURL string
	fetcher Fetcher
}

// NewClient creates a client against baseURL; empty means BaseURL.
func NewClient(baseURL string, fetcher Fetcher) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// SubGroupsURL returns the sub-groups lookup URL for a match business key.
func (c *Client) SubGroupsURL(outBizNo int64) string {
	return c.baseURL + fmt.Sprintf(subGroupsPath, outBizNo)
}

// ScoreTreeURL returns the score-tree lookup URL for a root node.
func (c *Client) ScoreTreeURL(rootNodeID int64) string {
	return c.baseURL + fmt.Sprintf(scoreTreePath, rootNodeID)
}

// CommentsURL returns the hottest-comments URL for a player business id.
func (c *Client) CommentsURL(bizID int64) string {
	return c.baseURL + fmt.Sprintf(commentsPath, bizID)
}

// FetchSubGroups looks up the groups of one match.
func (c *Client) FetchSubGroups(ctx context.Context, outBizNo int64) ([]Group, error) {
	url := c.SubGroupsURL(outBizNo)
	body, err := c.fetcher.Get(ctx, EndpointSubGroups, url)
	if err != nil {
		return nil, fmt.Errorf("fetch sub groups %d: %w", outBizNo, err)
	}
	groups, err := ParseSubGroups(body)
	if err != nil {
		return nil, fmt.Errorf("parse sub groups @ %s: %w", url, err)
	}
	return groups, nil
}

// FetchScoreTree fetches the player sections under a root node.
func (c *Client) FetchScoreTree(ctx context.Context, rootNodeID int64) ([]PlayerNode, error) {
	url := c.ScoreTreeURL(rootNodeID)
	body, err := c.fetcher.Get(ctx, EndpointScoreTree, url)
	if err != nil {
		return nil, fmt.Errorf("fetch score tree %d: %w", rootNodeID, err)
	}
	nodes, err := ParseScoreTree(body)
	if err != nil {
		return nil, fmt.Errorf("bad stats JSON @ %s: %w", url, err)
	}
	return nodes, nil
}

// FetchHottestComments fetches the hottest comments of one player.
func (c *Client) FetchHottestComments(ctx context.Context, bizID int64) ([]Comment, error) {
	url := c.CommentsURL(bizID)
	body, err := c.fetcher.Get(ctx, EndpointComments, url)
	if err != nil {
		return nil, fmt.Errorf("fetch comments %d: %w", bizID, err)
	}
	comments, err := ParseHottestComments(body)
	if err != nil {
		return nil, fmt.Errorf("bad comments JSON @ %s: %w", url, err)
	}
	return comments, nil
}
