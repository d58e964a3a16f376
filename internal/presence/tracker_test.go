package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/domain"
)

func TestTracker_RegisterAndLocate(t *testing.T) {
	tr := NewTracker()

	assert.Nil(t, tr.Register("r1", domain.RoleHost, "c1", 1))
	assert.Nil(t, tr.Register("r1", domain.RoleGuest, "c2", 2))

	loc, ok := tr.Locate("c2")
	require.True(t, ok)
	assert.Equal(t, Location{Room: "r1", Role: domain.RoleGuest}, loc)

	entry, ok := tr.Get("r1")
	require.True(t, ok)
	require.NotNil(t, entry.Host)
	assert.Equal(t, "c1", entry.Host.ConnID)
	assert.Equal(t, uint(2), entry.Guest.UserID)

	role, ok := tr.RoleOf("r1", "c1")
	require.True(t, ok)
	assert.Equal(t, domain.RoleHost, role)
	_, ok = tr.RoleOf("r1", "c9")
	assert.False(t, ok)
}

func TestTracker_RegisterReplacesSlot(t *testing.T) {
	tr := NewTracker()
	tr.Register("r1", domain.RoleHost, "c1", 1)

	replaced := tr.Register("r1", domain.RoleHost, "c3", 1)
	require.NotNil(t, replaced)
	assert.Equal(t, "c1", replaced.ConnID)

	_, ok := tr.Locate("c1")
	assert.False(t, ok)
	loc, ok := tr.Locate("c3")
	require.True(t, ok)
	assert.Equal(t, domain.RoleHost, loc.Role)
}

func TestTracker_ReleasePrunesEmptyEntries(t *testing.T) {
	tr := NewTracker()
	tr.Register("r1", domain.RoleHost, "c1", 1)
	tr.Register("r1", domain.RoleGuest, "c2", 2)

	// 连接不匹配时不移除
	_, ok := tr.Release("r1", domain.RoleGuest, "other")
	assert.False(t, ok)

	slot, ok := tr.Release("r1", domain.RoleGuest, "c2")
	require.True(t, ok)
	assert.Equal(t, "c2", slot.ConnID)
	_, ok = tr.Locate("c2")
	assert.False(t, ok)
	assert.Equal(t, 1, tr.Len())

	_, ok = tr.Release("r1", domain.RoleHost, "")
	require.True(t, ok)
	_, ok = tr.Get("r1")
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_ReleaseKeepsNewerIndex(t *testing.T) {
	tr := NewTracker()
	tr.Register("old", domain.RoleHost, "c1", 1)
	tr.Register("new", domain.RoleHost, "c1", 1)

	_, ok := tr.Release("old", domain.RoleHost, "c1")
	require.True(t, ok)

	loc, ok := tr.Locate("c1")
	require.True(t, ok)
	assert.Equal(t, "new", loc.Room)
}

func TestTracker_RequestRematchEitherOrder(t *testing.T) {
	for _, first := range []domain.Role{domain.RoleHost, domain.RoleGuest} {
		t.Run(string(first), func(t *testing.T) {
			tr := NewTracker()
			tr.Register("r1", domain.RoleHost, "c1", 1)
			tr.Register("r1", domain.RoleGuest, "c2", 2)

			ready, ok := tr.RequestRematch("r1", first)
			require.True(t, ok)
			assert.False(t, ready)

			// 重复请求不会触发
			ready, _ = tr.RequestRematch("r1", first)
			assert.False(t, ready)

			ready, ok = tr.RequestRematch("r1", first.Opponent())
			require.True(t, ok)
			assert.True(t, ready)

			entry, _ := tr.Get("r1")
			assert.False(t, entry.Host.RematchRequested)
			assert.False(t, entry.Guest.RematchRequested)
		})
	}
}

func TestTracker_RequestRematchWithoutSlot(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.RequestRematch("missing", domain.RoleHost)
	assert.False(t, ok)

	tr.Register("r1", domain.RoleHost, "c1", 1)
	_, ok = tr.RequestRematch("r1", domain.RoleGuest)
	assert.False(t, ok)
}

func TestTracker_FlagLostWithSlot(t *testing.T) {
	tr := NewTracker()
	tr.Register("r1", domain.RoleHost, "c1", 1)
	tr.Register("r1", domain.RoleGuest, "c2", 2)
	tr.RequestRematch("r1", domain.RoleHost)

	tr.Release("r1", domain.RoleHost, "c1")
	tr.Register("r1", domain.RoleHost, "c3", 1)

	ready, ok := tr.RequestRematch("r1", domain.RoleGuest)
	require.True(t, ok)
	assert.False(t, ready)
}

func TestTracker_ConcurrentRooms(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := fmt.Sprintf("room-%d", i)
			tr.Register(room, domain.RoleHost, fmt.Sprintf("h-%d", i), uint(i))
			tr.Register(room, domain.RoleGuest, fmt.Sprintf("g-%d", i), uint(i+100))
			tr.Release(room, domain.RoleGuest, fmt.Sprintf("g-%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, tr.Len())
	for i := 0; i < 50; i++ {
		_, ok := tr.Locate(fmt.Sprintf("g-%d", i))
		assert.False(t, ok)
	}
}
