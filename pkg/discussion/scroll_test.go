package discussion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	ready    bool
	scrolled bool
}

func (f *fakeTarget) Ready() bool      { return f.ready }
func (f *fakeTarget) ScrollIntoView() { f.scrolled = true }

// fakeLocator 在第 readyAfter 次查找时挂载元素，readyAfter <= 0 表示永不挂载
type fakeLocator struct {
	mu         sync.Mutex
	lookups    int
	readyAfter int
	target     fakeTarget
}

func (l *fakeLocator) Lookup(string) (Target, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookups++
	if l.readyAfter > 0 && l.lookups >= l.readyAfter {
		l.target.ready = true
		return &l.target, true
	}
	return nil, false
}

func TestScrollToFragment_WaitsForMount(t *testing.T) {
	th, _, _ := seedThread(t, WithScrollRetry(20, time.Millisecond))
	loc := &fakeLocator{readyAfter: 3}

	require.NoError(t, th.ScrollToFragment(context.Background(), "#b", loc))
	assert.True(t, loc.target.scrolled)
	assert.Equal(t, 3, loc.lookups)
	assert.Equal(t, "b", th.Highlighted())
}

func TestScrollToFragment_GivesUp(t *testing.T) {
	th, _, _ := seedThread(t, WithScrollRetry(5, time.Millisecond))
	loc := &fakeLocator{}

	err := th.ScrollToFragment(context.Background(), "#b", loc)
	assert.ErrorIs(t, err, ErrScrollAbandoned)
	assert.Equal(t, 5, loc.lookups)
	assert.Equal(t, "", th.Highlighted())
}

func TestScrollToFragment_UnknownIDAbandonsImmediately(t *testing.T) {
	th, _, _ := seedThread(t)
	loc := &fakeLocator{readyAfter: 1}

	err := th.ScrollToFragment(context.Background(), "#deleted", loc)
	assert.ErrorIs(t, err, ErrScrollAbandoned)
	assert.Zero(t, loc.lookups)
	assert.Equal(t, "", th.Highlighted())
}

func TestScrollToFragment_EmptyFragment(t *testing.T) {
	th, _, _ := seedThread(t)
	loc := &fakeLocator{}

	assert.NoError(t, th.ScrollToFragment(context.Background(), "", loc))
	assert.Zero(t, loc.lookups)
}

func TestScrollToFragment_ContextCanceled(t *testing.T) {
	th, _, _ := seedThread(t, WithScrollRetry(1000, 10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := th.ScrollToFragment(ctx, "a", &fakeLocator{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "", th.Highlighted())
}
