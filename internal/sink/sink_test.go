package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/registry"
)

func sampleRecord(name string) hupu.FinalRecord {
	return hupu.PartialRecord{
		OutBizNo:   1001,
		Team:       "湖人",
		RootNodeID: 555,
		PlayerName: name,
		Pts:        "24",
	}.Complete([hupu.CommentSlots]string{"a;b'c d", "", ""})
}

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.WriteRecord(ctx, sampleRecord("LeBron James")))
	require.NoError(t, s.WriteNode(ctx, hupu.NodeEntry{OutBizNo: 1}))
	require.NoError(t, s.Close())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, hupu.RecordHeader, rows[0])
	assert.Equal(t, []string{
		"1001", "湖人", "555", "LeBron James", "", "", "24", "", "", "", "", "",
		"a;b'c d", "", "",
	}, rows[1])
}

func TestCSVSinkConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match_stats.csv")
	s, err := CreateCSV(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.WriteRecord(context.Background(), sampleRecord("same")))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 21, "identical records are all kept")
}

func TestJSONNodeSinkWritesRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), registry.DefaultPath)
	s := NewJSONNodeSink(path)

	ctx := context.Background()
	entry := hupu.NodeEntry{OutBizNo: 7, GroupName: "湖人", RootNodeID: 101}
	require.NoError(t, s.WriteNode(ctx, entry))
	require.NoError(t, s.WriteRecord(ctx, sampleRecord("ignored")))
	require.NoError(t, s.Close())

	assert.Equal(t, []hupu.NodeEntry{entry}, registry.LoadFile(path, nil))
}

type fakeSink struct {
	nodes   int
	records int
	closed  bool
	err     error
}

func (f *fakeSink) WriteNode(context.Context, hupu.NodeEntry) error {
	f.nodes++
	return f.err
}

func (f *fakeSink) WriteRecord(context.Context, hupu.FinalRecord) error {
	f.records++
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return f.err
}

func TestMultiAttemptsEverySinkAndJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	a := &fakeSink{err: errA}
	b := &fakeSink{}
	m := Multi{a, b}

	ctx := context.Background()
	err := m.WriteRecord(ctx, sampleRecord("x"))
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, 1, a.records)
	assert.Equal(t, 1, b.records)

	assert.ErrorIs(t, m.WriteNode(ctx, hupu.NodeEntry{}), errA)
	assert.Equal(t, 1, b.nodes)

	assert.ErrorIs(t, m.Close(), errA)
	assert.True(t, a.closed)
	assert.True(t, b.closed)

	assert.NoError(t, Multi{b}.WriteRecord(ctx, sampleRecord("y")))
}

type fakeRepo struct {
	upserted []hupu.NodeEntry
	inserted []hupu.FinalRecord
}

func (f *fakeRepo) Upsert(_ context.Context, e hupu.NodeEntry) error {
	f.upserted = append(f.upserted, e)
	return nil
}

func (f *fakeRepo) Insert(_ context.Context, r hupu.FinalRecord) error {
	f.inserted = append(f.inserted, r)
	return nil
}

func TestPostgresSinkDelegatesToRepositories(t *testing.T) {
	repo := &fakeRepo{}
	s := NewPostgresSink(repo, repo)

	ctx := context.Background()
	require.NoError(t, s.WriteNode(ctx, hupu.NodeEntry{OutBizNo: 1}))
	require.NoError(t, s.WriteRecord(ctx, sampleRecord("x")))
	assert.Len(t, repo.upserted, 1)
	assert.Len(t, repo.inserted, 1)

	assert.NoError(t, NewPostgresSink(nil, nil).WriteRecord(ctx, sampleRecord("x")))
}

type fakePublisher struct {
	nodes, records int
}

func (f *fakePublisher) PublishNode(context.Context, hupu.NodeEntry) error {
	f.nodes++
	return nil
}

func (f *fakePublisher) PublishRecord(context.Context, hupu.FinalRecord) error {
	f.records++
	return nil
}

type fakeHub struct {
	got []hupu.FinalRecord
}

func (f *fakeHub) BroadcastRecord(rec hupu.FinalRecord) {
	f.got = append(f.got, rec)
}

func TestStreamAndBroadcastSinks(t *testing.T) {
	ctx := context.Background()

	pub := &fakePublisher{}
	stream := NewStreamSink(pub)
	require.NoError(t, stream.WriteNode(ctx, hupu.NodeEntry{}))
	require.NoError(t, stream.WriteRecord(ctx, sampleRecord("x")))
	assert.Equal(t, 1, pub.nodes)
	assert.Equal(t, 1, pub.records)

	hub := &fakeHub{}
	bcast := NewBroadcastSink(hub)
	require.NoError(t, bcast.WriteNode(ctx, hupu.NodeEntry{}))
	require.NoError(t, bcast.WriteRecord(ctx, sampleRecord("x")))
	assert.Len(t, hub.got, 1)
}
