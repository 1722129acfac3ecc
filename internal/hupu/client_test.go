package hupu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	endpoint string
	url      string
	body     string
	err      error
}

func (s *stubFetcher) Get(_ context.Context, endpoint, url string) ([]byte, error) {
	s.endpoint, s.url = endpoint, url
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func TestURLBuilders(t *testing.T) {
	c := NewClient("", nil)

	assert.Equal(t,
		"https://games.mobileapi.hupu.com/1/8.0.99/bplcommentapi/bpl/score_tree/getSubGroups?outBizNo=42&outBizType=basketball_match",
		c.SubGroupsURL(42))
	assert.Equal(t,
		"https://games.mobileapi.hupu.com/1/8.2.99/bplcommentapi/bff/bpl/score_tree/groupAndSubNodes?nodeId=7&queryType=hot&page=1&pageSize=20",
		c.ScoreTreeURL(7))
	assert.Equal(t,
		"https://games.mobileapi.hupu.com/1/8.2.99/bplcommentapi/bpl/comment/list/primarySingleRow/hottest?outBizNo=9&outBizType=basketball_item&clientCode=",
		c.CommentsURL(9))
}

func TestNewClientTrimsBaseURL(t *testing.T) {
	c := NewClient("http://localhost:9000/", nil)
	assert.Equal(t, "http://localhost:9000"+"/1/8.2.99/bplcommentapi/bff/bpl/score_tree/groupAndSubNodes?nodeId=1&queryType=hot&page=1&pageSize=20", c.ScoreTreeURL(1))
}

func TestFetchPassesEndpointFamily(t *testing.T) {
	f := &stubFetcher{body: `{"success":true,"data":[{"commentContent":"hi"}]}`}
	c := NewClient("http://h", f)

	comments, err := c.FetchHottestComments(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, EndpointComments, f.endpoint)
	assert.Equal(t, c.CommentsURL(3), f.url)
	assert.Equal(t, []Comment{{Content: "hi"}}, comments)
}

func TestFetchWrapsTransportErrors(t *testing.T) {
	boom := errors.New("boom")
	c := NewClient("http://h", &stubFetcher{err: boom})

	_, err := c.FetchScoreTree(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = c.FetchSubGroups(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}

func TestFetchScoreTreeReportsBadJSON(t *testing.T) {
	c := NewClient("http://h", &stubFetcher{body: `{"data":{}}`})

	_, err := c.FetchScoreTree(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad stats JSON")
}
