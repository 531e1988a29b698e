package mediagroup_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumidecor/internal/mediagroup"
)

type sink struct {
	mu     sync.Mutex
	groups []mediagroup.Group
}

func (s *sink) flush(g mediagroup.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, g)
}

func (s *sink) snapshot() []mediagroup.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mediagroup.Group(nil), s.groups...)
}

func TestAggregator_FlushesAlbumOnce(t *testing.T) {
	out := &sink{}
	ag := mediagroup.New(mediagroup.Options{Debounce: 20 * time.Millisecond, OnFlush: out.flush})

	assert.True(t, ag.Add(mediagroup.Item{ChatID: 1, UserID: 7, MediaGroupID: "g", FileID: "f1"}))
	assert.True(t, ag.Add(mediagroup.Item{ChatID: 1, UserID: 7, MediaGroupID: "g", FileID: "f2", Caption: "北欧风"}))
	assert.True(t, ag.Add(mediagroup.Item{ChatID: 2, MediaGroupID: "g", FileID: "other"}))

	require.Eventually(t, func() bool { return len(out.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	var album mediagroup.Group
	for _, g := range out.snapshot() {
		if g.ChatID == 1 {
			album = g
		}
	}
	assert.Equal(t, []string{"f1", "f2"}, album.FileIDs)
	assert.Equal(t, "北欧风", album.Caption)
	assert.Equal(t, int64(7), album.UserID)
	assert.Equal(t, 0, ag.Pending())
}

func TestAggregator_IgnoresLooseItems(t *testing.T) {
	ag := mediagroup.New(mediagroup.Options{})
	assert.False(t, ag.Add(mediagroup.Item{ChatID: 1, FileID: "f1"}))
	assert.False(t, ag.Add(mediagroup.Item{ChatID: 1, MediaGroupID: "g"}))
	assert.Equal(t, 0, ag.Pending())
}

func TestAggregator_MaxItems(t *testing.T) {
	out := &sink{}
	ag := mediagroup.New(mediagroup.Options{Debounce: 10 * time.Millisecond, MaxItems: 2, OnFlush: out.flush})

	assert.True(t, ag.Add(mediagroup.Item{ChatID: 1, MediaGroupID: "g", FileID: "f1"}))
	assert.True(t, ag.Add(mediagroup.Item{ChatID: 1, MediaGroupID: "g", FileID: "f2"}))
	assert.False(t, ag.Add(mediagroup.Item{ChatID: 1, MediaGroupID: "g", FileID: "f3"}))

	require.Eventually(t, func() bool { return len(out.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"f1", "f2"}, out.snapshot()[0].FileIDs)
}

func TestAggregator_StopDropsPending(t *testing.T) {
	out := &sink{}
	ag := mediagroup.New(mediagroup.Options{Debounce: 20 * time.Millisecond, OnFlush: out.flush})

	ag.Add(mediagroup.Item{ChatID: 1, MediaGroupID: "g", FileID: "f1"})
	ag.Stop()
	assert.Equal(t, 0, ag.Pending())
	assert.False(t, ag.Add(mediagroup.Item{ChatID: 1, MediaGroupID: "h", FileID: "f2"}))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, out.snapshot())
}
