package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/dto"
	gormpersistence "guess-who-arena/internal/infra/persistence/gorm"
	"guess-who-arena/internal/infra/setup"
	"guess-who-arena/internal/presence"
	"guess-who-arena/internal/service"
)

// --- fake 连接 ---

type sentEvent struct {
	Event   string
	Payload interface{}
}

type fakeConn struct {
	id     string
	userID uint

	mu     sync.Mutex
	events []sentEvent
	closed bool
}

func newConn(id string, userID uint) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (f *fakeConn) ID() string   { return f.id }
func (f *fakeConn) UserID() uint { return f.userID }

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) Send(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{Event: event, Payload: payload})
	return nil
}

// named 返回指定名称的事件负载
func (f *fakeConn) named(event string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []interface{}
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (f *fakeConn) lastError() (dto.ErrorEvent, bool) {
	errs := f.named(dto.EventError)
	if len(errs) == 0 {
		return dto.ErrorEvent{}, false
	}
	return errs[len(errs)-1].(dto.ErrorEvent), true
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.events = nil
	f.mu.Unlock()
}

// --- fake 频道 ---

type fakeChannels struct {
	mu    sync.Mutex
	rooms map[string]map[string]service.Connection
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{rooms: make(map[string]map[string]service.Connection)}
}

func (f *fakeChannels) Join(room string, conn service.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[room] == nil {
		f.rooms[room] = make(map[string]service.Connection)
	}
	f.rooms[room][conn.ID()] = conn
}

func (f *fakeChannels) Leave(room string, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[room], connID)
	if len(f.rooms[room]) == 0 {
		delete(f.rooms, room)
	}
}

func (f *fakeChannels) Broadcast(room string, event string, payload interface{}, exceptConnID string) {
	f.mu.Lock()
	members := make([]service.Connection, 0, len(f.rooms[room]))
	for id, conn := range f.rooms[room] {
		if id != exceptConnID {
			members = append(members, conn)
		}
	}
	f.mu.Unlock()
	for _, conn := range members {
		_ = conn.Send(event, payload)
	}
}

func (f *fakeChannels) IsMember(room string, connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[room][connID]
	return ok
}

// --- 测试夹具 ---

type fixture struct {
	t        *testing.T
	db       *gorm.DB
	coord    *service.Coordinator
	channels *fakeChannels
	tracker  *presence.Tracker
	rooms    *gormpersistence.GormRoomRepository
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, setup.MigrateDB(db))

	rooms := gormpersistence.NewGormRoomRepository(db)
	images := gormpersistence.NewGormImageRepository(db)
	users := gormpersistence.NewGormUserRepository(db)
	channels := newFakeChannels()
	tracker := presence.NewTracker()

	coord := service.NewCoordinator(
		rooms,
		images,
		service.NewContentResolver(images),
		service.NewUserService(users, nil),
		tracker,
		channels,
		service.DefaultCoordinatorConfig(),
	)
	return &fixture{t: t, db: db, coord: coord, channels: channels, tracker: tracker, rooms: rooms, ctx: context.Background()}
}

func (f *fixture) seedUser(id uint, username string) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&domain.User{ID: id, Username: username, Title: domain.DefaultTitle}).Error)
}

func (f *fixture) seedCategory(category string, n int) {
	f.t.Helper()
	images := make([]domain.Image, 0, n)
	for i := 0; i < n; i++ {
		images = append(images, domain.Image{Category: category, URL: fmt.Sprintf("https://img/%s/%d", category, i), Name: fmt.Sprintf("%s-%d", category, i)})
	}
	require.NoError(f.t, f.db.Create(&images).Error)
}

func (f *fixture) seedDeck(ownerID uint, n int) uint {
	f.t.Helper()
	deck := &domain.Deck{UserID: ownerID, Name: "deck"}
	require.NoError(f.t, f.db.Create(deck).Error)
	f.seedLibrary(ownerID, n, &deck.ID)
	return deck.ID
}

func (f *fixture) seedLibrary(ownerID uint, n int, deckID *uint) {
	f.t.Helper()
	if n == 0 {
		return
	}
	images := make([]domain.Image, 0, n)
	for i := 0; i < n; i++ {
		owner := ownerID
		images = append(images, domain.Image{URL: fmt.Sprintf("https://img/u%d/%d", ownerID, i), Name: fmt.Sprintf("p%d", i), UserID: &owner, DeckID: deckID})
	}
	require.NoError(f.t, f.db.Create(&images).Error)
}

func (f *fixture) score(userID uint) int {
	f.t.Helper()
	var user domain.User
	require.NoError(f.t, f.db.First(&user, userID).Error)
	return user.Score
}

func (f *fixture) room(name string) (*domain.Room, error) {
	return f.rooms.FindByName(f.ctx, name)
}

// do 发送一条动作消息
func (f *fixture) do(conn *fakeConn, action string, data interface{}) {
	f.t.Helper()
	f.coord.HandleMessage(f.ctx, conn, message(f.t, action, data))
}

func message(t *testing.T, action string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	env, err := json.Marshal(dto.Envelope{Event: action, Data: raw})
	require.NoError(t, err)
	return env
}

// startedRoom 建好一个双方都已选角色的房间
func (f *fixture) startedRoom(name string, host, guest *fakeConn, hostChar, guestChar uint) {
	f.t.Helper()
	f.do(host, dto.ActionCreate, dto.CreateRequest{Name: name, UserID: host.userID, Mode: domain.ModeCategory, Category: "animals"})
	f.do(guest, dto.ActionJoin, dto.JoinRequest{Name: name, UserID: guest.userID})
	f.do(host, dto.ActionChoose, dto.CharacterRequest{Name: name, Player: domain.RoleHost, CharacterID: hostChar})
	f.do(guest, dto.ActionChoose, dto.CharacterRequest{Name: name, Player: domain.RoleGuest, CharacterID: guestChar})
	_, hostErr := host.lastError()
	_, guestErr := guest.lastError()
	require.False(f.t, hostErr, "host should not have received an error")
	require.False(f.t, guestErr, "guest should not have received an error")
}
