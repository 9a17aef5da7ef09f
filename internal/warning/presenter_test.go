package warning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapStorage map[string]string

func (m mapStorage) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapStorage) Set(key, value string) error {
	m[key] = value
	return nil
}

type fakeSurface struct {
	hidden  bool
	failing bool
}

func newFakeSurface() *fakeSurface { return &fakeSurface{hidden: true} }

func (f *fakeSurface) Show() error {
	if f.failing {
		return errors.New("cannot show")
	}
	f.hidden = false
	return nil
}

func (f *fakeSurface) Hide() error {
	f.hidden = true
	return nil
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "session-inactivity-warning-modal", Inactivity.SurfaceID())
	assert.Equal(t, "session-length-warning-modal", TotalLength.SurfaceID())

	k, err := KindForModalType("session-length-warning")
	assert.NoError(t, err)
	assert.Equal(t, TotalLength, k)

	_, err = KindForModalType("session-other-warning")
	assert.Error(t, err)
}

func TestShowRecordsTimestamp(t *testing.T) {
	store := mapStorage{}
	inactivity := newFakeSurface()
	p := NewPresenter(store, map[Kind]Surface{Inactivity: inactivity, TotalLength: newFakeSurface()}, nil)

	assert.True(t, p.Show(Inactivity, 1234))
	assert.False(t, inactivity.hidden)
	assert.True(t, p.Visible(Inactivity))
	assert.False(t, p.Visible(TotalLength))
	assert.Equal(t, "1234", store[Inactivity.StorageKey()])

	ts, ok := p.LastShown(Inactivity)
	assert.True(t, ok)
	assert.Equal(t, int64(1234), ts)
}

func TestHideKeepsTimestamp(t *testing.T) {
	store := mapStorage{}
	length := newFakeSurface()
	p := NewPresenter(store, map[Kind]Surface{Inactivity: newFakeSurface(), TotalLength: length}, nil)

	p.Show(TotalLength, 99)
	p.Hide(TotalLength)

	assert.True(t, length.hidden)
	assert.False(t, p.Visible(TotalLength))
	ts, ok := p.LastShown(TotalLength)
	assert.True(t, ok)
	assert.Equal(t, int64(99), ts)
}

func TestMissingSurfaceIsInert(t *testing.T) {
	store := mapStorage{}
	p := NewPresenter(store, map[Kind]Surface{TotalLength: newFakeSurface()}, nil)

	assert.True(t, p.Inert(Inactivity))
	assert.False(t, p.Inert(TotalLength))
	assert.False(t, p.Show(Inactivity, 5))
	assert.False(t, p.Visible(Inactivity))
	assert.NotContains(t, store, Inactivity.StorageKey())

	// hiding an inert kind is a no-op
	p.Hide(Inactivity)
}

func TestShowFailureLeavesStateUntouched(t *testing.T) {
	store := mapStorage{}
	p := NewPresenter(store, map[Kind]Surface{Inactivity: &fakeSurface{failing: true}, TotalLength: newFakeSurface()}, nil)

	assert.False(t, p.Show(Inactivity, 5))
	assert.False(t, p.Visible(Inactivity))
	_, ok := p.LastShown(Inactivity)
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	store := mapStorage{TotalLength.StorageKey(): "77", Inactivity.StorageKey(): "garbage"}
	p := NewPresenter(store, map[Kind]Surface{Inactivity: newFakeSurface()}, nil)
	p.Show(Inactivity, 10)

	snap := p.Snapshot()
	assert.True(t, snap.AnyVisible())
	assert.True(t, snap.Inert[TotalLength])

	ts, ok := snap.ShownAt(Inactivity)
	assert.True(t, ok)
	assert.Equal(t, int64(10), ts)

	ts, ok = snap.ShownAt(TotalLength)
	assert.True(t, ok)
	assert.Equal(t, int64(77), ts)
}

func TestLogToaster(t *testing.T) {
	assert.NoError(t, LogToaster{}.ShowToast(Toast{ID: ExtendErrorToastID, Content: "Failed", Type: ToastError}))
	assert.NoError(t, LogSurface{Kind: Inactivity}.Show())
	assert.NoError(t, LogSurface{Kind: Inactivity}.Hide())
}
