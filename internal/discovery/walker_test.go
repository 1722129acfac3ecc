package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/metrics"
)

// fakeAPI serves canned bodies by URL and counts requests.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bodies: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeAPI) Get(_ context.Context, _ string, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	body, ok := f.bodies[url]
	if !ok {
		return nil, errors.New("connection reset")
	}
	return []byte(body), nil
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type recordingSink struct {
	mu      sync.Mutex
	entries []hupu.NodeEntry
	err     error
}

func (s *recordingSink) WriteNode(_ context.Context, entry hupu.NodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

func TestRunKeepsOnlyKnownTeams(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	api.bodies[client.SubGroupsURL(7)] = `{"data":[
		{"groupName":"湖人","rootNodeId":101},
		{"groupName":"Unknown","rootNodeId":102}
	]}`

	sink := &recordingSink{}
	m := metrics.New()
	w := NewWalker(client, sink, Options{Concurrency: 2, Metrics: m})

	result := w.Run(context.Background(), 7, 7)

	want := []hupu.NodeEntry{{OutBizNo: 7, GroupName: "湖人", RootNodeID: 101}}
	assert.Equal(t, want, result.Entries)
	assert.Equal(t, 1, result.Matches)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, want, sink.entries)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesDiscovered))
}

func TestRunSkipsFailedAndMalformedIDs(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	api.bodies[client.SubGroupsURL(1)] = `not json`
	// id 2 has no body: transport error
	api.bodies[client.SubGroupsURL(3)] = `{"data":[{"groupName":"勇士","rootNodeId":30},{"groupName":"雷霆","rootNodeId":31}]}`
	api.bodies[client.SubGroupsURL(4)] = `{"data":"nope"}`

	result := NewWalker(client, nil, Options{}).Run(context.Background(), 1, 4)

	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 2, result.Matches)
	assert.Equal(t, []hupu.NodeEntry{
		{OutBizNo: 3, GroupName: "勇士", RootNodeID: 30},
		{OutBizNo: 3, GroupName: "雷霆", RootNodeID: 31},
	}, result.Entries)
	assert.Equal(t, 4, api.total(), "each id is requested exactly once")
}

func TestRunSwapsReversedRange(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	api.bodies[client.SubGroupsURL(11)] = `{"data":[{"groupName":"热火","rootNodeId":5}]}`

	result := NewWalker(client, nil, Options{}).Run(context.Background(), 12, 10)

	assert.Equal(t, 3, result.Requested)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, int64(11), result.Entries[0].OutBizNo)
}

func TestRunUsesConfiguredTeams(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	api.bodies[client.SubGroupsURL(1)] = `{"data":[{"groupName":"湖人","rootNodeId":1},{"groupName":"Mavericks","rootNodeId":2}]}`

	w := NewWalker(client, nil, Options{Teams: hupu.NewTeamSet([]string{"Mavericks"})})
	result := w.Run(context.Background(), 1, 1)

	assert.Equal(t, []hupu.NodeEntry{{OutBizNo: 1, GroupName: "Mavericks", RootNodeID: 2}}, result.Entries)
}

func TestRunCountsSinkErrorsWithoutDroppingEntries(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	api.bodies[client.SubGroupsURL(1)] = `{"data":[{"groupName":"公牛","rootNodeId":8}]}`

	sink := &recordingSink{err: errors.New("disk full")}
	result := NewWalker(client, sink, Options{}).Run(context.Background(), 1, 1)

	assert.Equal(t, 1, result.Matches)
	assert.Equal(t, 1, result.SinkErrors)
}

func TestRunStopsSchedulingWhenCancelled(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewWalker(client, nil, Options{}).Run(ctx, 0, 100)
	assert.Equal(t, 0, result.Requested)
	assert.Equal(t, 0, api.total())
}

func TestRunWithUnboundedRangeReturnsWhenCancelled(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker(client, nil, Options{})
	for _, r := range [][2]int64{{0, math.MaxInt64}, {math.MinInt64, math.MaxInt64}, {0, 1 << 40}} {
		result := w.Run(ctx, r[0], r[1])
		assert.Equal(t, 0, result.Requested)
		assert.Empty(t, result.Entries)
	}
	assert.Equal(t, 0, api.total())
}

func TestRunTerminatesAtInt64Bounds(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	api.bodies[client.SubGroupsURL(math.MaxInt64)] = `{"data":[{"groupName":"湖人","rootNodeId":1}]}`
	api.bodies[client.SubGroupsURL(math.MinInt64)] = `{"data":[{"groupName":"勇士","rootNodeId":2}]}`

	w := NewWalker(client, nil, Options{Concurrency: 2})

	top := w.Run(context.Background(), math.MaxInt64-2, math.MaxInt64)
	assert.Equal(t, 3, top.Requested)
	assert.Equal(t, []hupu.NodeEntry{{OutBizNo: math.MaxInt64, GroupName: "湖人", RootNodeID: 1}}, top.Entries)

	bottom := w.Run(context.Background(), math.MinInt64+1, math.MinInt64)
	assert.Equal(t, 2, bottom.Requested)
	assert.Equal(t, []hupu.NodeEntry{{OutBizNo: math.MinInt64, GroupName: "勇士", RootNodeID: 2}}, bottom.Entries)
}

func TestRunOrdersEntriesByID(t *testing.T) {
	api := newFakeAPI()
	client := hupu.NewClient("http://hupu.test", api)
	for id := int64(1); id <= 20; id++ {
		api.bodies[client.SubGroupsURL(id)] = fmt.Sprintf(`{"data":[{"groupName":"湖人","rootNodeId":%d},{"groupName":"勇士","rootNodeId":%d}]}`, id*10, id*10+1)
	}

	result := NewWalker(client, nil, Options{Concurrency: 8}).Run(context.Background(), 1, 20)

	require.Len(t, result.Entries, 40)
	for i, e := range result.Entries {
		assert.EqualValues(t, i/2+1, e.OutBizNo)
		assert.EqualValues(t, e.OutBizNo*10+int64(i%2), e.RootNodeID)
	}
}
