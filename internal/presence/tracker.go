// Package presence 记录哪些在线连接当前代表房间里的哪个角色。
// 数据只存在于内存中，完全由实时连接流量重建。
package presence

import (
	"hash/fnv"
	"sync"

	"guess-who-arena/internal/domain"
)

const shardCount = 32

// Slot 是房间中一个角色位置上的在线连接
type Slot struct {
	ConnID           string
	UserID           uint
	RematchRequested bool
}

// Entry 是一个房间的在线情况，每个角色最多一个连接
type Entry struct {
	Host  *Slot
	Guest *Slot
}

// Empty 判断两个角色是否都不在线
func (e *Entry) Empty() bool { return e.Host == nil && e.Guest == nil }

// Slot 返回指定角色的位置，可能为 nil
func (e *Entry) Slot(role domain.Role) *Slot {
	if role == domain.RoleHost {
		return e.Host
	}
	return e.Guest
}

func (e *Entry) set(role domain.Role, s *Slot) {
	if role == domain.RoleHost {
		e.Host = s
	} else {
		e.Guest = s
	}
}

func (e *Entry) clone() Entry {
	var c Entry
	if e.Host != nil {
		h := *e.Host
		c.Host = &h
	}
	if e.Guest != nil {
		g := *e.Guest
		c.Guest = &g
	}
	return c
}

// Location 是连接在哪个房间以什么角色在线
type Location struct {
	Room string
	Role domain.Role
}

type roomShard struct {
	mu    sync.Mutex
	rooms map[string]*Entry
}

type connShard struct {
	mu    sync.Mutex
	conns map[string]Location
}

// Tracker 按房间名分片保存在线情况，并维护 连接 -> (房间, 角色) 的索引。
// 锁顺序固定为先房间分片后连接分片。
type Tracker struct {
	roomShards [shardCount]roomShard
	connShards [shardCount]connShard
}

// NewTracker 创建空的 Tracker
func NewTracker() *Tracker {
	t := &Tracker{}
	for i := range t.roomShards {
		t.roomShards[i].rooms = make(map[string]*Entry)
		t.connShards[i].conns = make(map[string]Location)
	}
	return t
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}

func (t *Tracker) roomShard(room string) *roomShard { return &t.roomShards[shardIndex(room)] }
func (t *Tracker) connShard(connID string) *connShard {
	return &t.connShards[shardIndex(connID)]
}

func (t *Tracker) index(connID string, loc Location) {
	cs := t.connShard(connID)
	cs.mu.Lock()
	cs.conns[connID] = loc
	cs.mu.Unlock()
}

// unindex 只在索引仍指向 loc 时删除，避免误删连接在别处的新位置
func (t *Tracker) unindex(connID string, loc Location) {
	cs := t.connShard(connID)
	cs.mu.Lock()
	if cur, ok := cs.conns[connID]; ok && cur == loc {
		delete(cs.conns, connID)
	}
	cs.mu.Unlock()
}

// Register 把连接登记为房间的某个角色。若该位置原先由另一个连接占据，
// 旧连接被替换并返回，保证每个角色同一时刻只有一个连接。
func (t *Tracker) Register(room string, role domain.Role, connID string, userID uint) (replaced *Slot) {
	loc := Location{Room: room, Role: role}
	rs := t.roomShard(room)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	entry, ok := rs.rooms[room]
	if !ok {
		entry = &Entry{}
		rs.rooms[room] = entry
	}
	if prev := entry.Slot(role); prev != nil && prev.ConnID != connID {
		old := *prev
		replaced = &old
		t.unindex(prev.ConnID, loc)
	}
	entry.set(role, &Slot{ConnID: connID, UserID: userID})
	t.index(connID, loc)
	return replaced
}

// Locate 通过索引 O(1) 查找连接所在的房间和角色
func (t *Tracker) Locate(connID string) (Location, bool) {
	cs := t.connShard(connID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	loc, ok := cs.conns[connID]
	return loc, ok
}

// Get 返回房间在线情况的副本
func (t *Tracker) Get(room string) (Entry, bool) {
	rs := t.roomShard(room)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	entry, ok := rs.rooms[room]
	if !ok {
		return Entry{}, false
	}
	return entry.clone(), true
}

// RoleOf 返回连接在指定房间中的角色，不依赖索引
func (t *Tracker) RoleOf(room, connID string) (domain.Role, bool) {
	entry, ok := t.Get(room)
	if !ok {
		return "", false
	}
	if entry.Host != nil && entry.Host.ConnID == connID {
		return domain.RoleHost, true
	}
	if entry.Guest != nil && entry.Guest.ConnID == connID {
		return domain.RoleGuest, true
	}
	return "", false
}

// Release 移除房间中某个角色的位置。connID 非空时只在位置仍属于该连接时移除。
// 房间两个角色都不在线时条目被清理。
func (t *Tracker) Release(room string, role domain.Role, connID string) (Slot, bool) {
	rs := t.roomShard(room)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	entry, ok := rs.rooms[room]
	if !ok {
		return Slot{}, false
	}
	slot := entry.Slot(role)
	if slot == nil || (connID != "" && slot.ConnID != connID) {
		return Slot{}, false
	}
	released := *slot
	entry.set(role, nil)
	t.unindex(released.ConnID, Location{Room: room, Role: role})
	if entry.Empty() {
		delete(rs.rooms, room)
	}
	return released, true
}

// RequestRematch 设置角色的再来一局标记。若对方已经请求过，清空双方标记并返回 ready=true。
// ok=false 表示该角色当前不在线。
func (t *Tracker) RequestRematch(room string, role domain.Role) (ready bool, ok bool) {
	rs := t.roomShard(room)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	entry, exists := rs.rooms[room]
	if !exists {
		return false, false
	}
	own := entry.Slot(role)
	if own == nil {
		return false, false
	}
	peer := entry.Slot(role.Opponent())
	if peer != nil && peer.RematchRequested {
		peer.RematchRequested = false
		own.RematchRequested = false
		return true, true
	}
	own.RematchRequested = true
	return false, true
}

// Len 返回有在线连接的房间数量
func (t *Tracker) Len() int {
	n := 0
	for i := range t.roomShards {
		rs := &t.roomShards[i]
		rs.mu.Lock()
		n += len(rs.rooms)
		rs.mu.Unlock()
	}
	return n
}
