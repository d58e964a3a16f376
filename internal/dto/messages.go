package dto

import (
	"encoding/json"

	"guess-who-arena/internal/domain"
)

// 客户端发来的动作名称
const (
	ActionCreate      = "create"
	ActionJoin        = "join"
	ActionStart       = "start"
	ActionChoose      = "choose"
	ActionSelect      = "select"
	ActionChangeTurn  = "changeTurn"
	ActionLostLifes   = "lostLifes"
	ActionQuit        = "quit"
	ActionAskRematch  = "askRematch"
	ActionRematch     = "rematch"
	ActionJoinRematch = "joinRematch"
)

// 发送给客户端的事件名称
const (
	EventRoomCreated          = "roomCreated"
	EventGuestJoined          = "guestJoined"
	EventJoined               = "joined"
	EventGameStarted          = "gameStarted"
	EventGoBoard              = "goBoard"
	EventCharacterChosen      = "characterChosen"
	EventStartTurn            = "startTurn"
	EventHostWon              = "hostWon"
	EventGuestWon             = "guestWon"
	EventHostLost             = "hostLost"
	EventGuestLost            = "guestLost"
	EventSelectResult         = "selectResult"
	EventPlayerLostAllLifes   = "playerLostAllLifes"
	EventAskPlayAgain         = "askPlayAgain"
	EventRematchCanStart      = "rematchCanStart"
	EventRematchInvitation    = "rematchInvitation"
	EventGuestLeftBeforeStart = "guestLeftBeforeStart"
	EventHostLeftBeforeStart  = "hostLeftBeforeStart"
	EventQuit                 = "quit"
	EventOpponentDisconnected = "opponentDisconnected"
	EventQuitAck              = "quitAck"
	EventError                = "error"
)

// 错误事件中的错误码
const (
	CodeValidation       = "validation"
	CodeConflict         = "conflict"
	CodeNotFound         = "not_found"
	CodeNotEnoughContent = "not_enough_content"
	CodeActionFailed     = "action_failed"
)

// Envelope 是双向通用的消息外壳：{"event": "...", "data": {...}}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutgoingMessage 是服务端发出的消息
type OutgoingMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// --- 入站动作 ---

// CreateRequest 对应 create 动作
type CreateRequest struct {
	Name     string `json:"name"`
	UserID   uint   `json:"userId"`
	Mode     string `json:"mode"`
	Category string `json:"category,omitempty"`
	DeckID   *uint  `json:"deckId,omitempty"`
}

// JoinRequest 对应 join 动作
type JoinRequest struct {
	Name   string `json:"name"`
	UserID uint   `json:"userId"`
}

// RoomRequest 对应只需要房间名的动作 (start)
type RoomRequest struct {
	Name string `json:"name"`
}

// PlayerRequest 对应 changeTurn / lostLifes / askRematch
type PlayerRequest struct {
	Name   string      `json:"name"`
	Player domain.Role `json:"player"`
}

// CharacterRequest 对应 choose / select
type CharacterRequest struct {
	Name        string      `json:"name"`
	Player      domain.Role `json:"player"`
	CharacterID uint        `json:"characterId"`
}

// QuitRequest 对应 quit 动作
type QuitRequest struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	UserID uint   `json:"userId"`
}

// RematchRequest 对应 rematch 动作：房主在旧房间结束后开新房间
type RematchRequest struct {
	NewRoomName string `json:"newRoomName"`
	OldRoomName string `json:"oldRoomName"`
	Mode        string `json:"mode"`
	Category    string `json:"category,omitempty"`
	DeckID      *uint  `json:"deckId,omitempty"`
	HostID      uint   `json:"hostId"`
}

// JoinRematchRequest 对应 joinRematch 动作
type JoinRematchRequest struct {
	NewRoomName string `json:"newRoomName"`
	GuestID     uint   `json:"guestId"`
}

// --- 出站事件 ---

type RoomCreatedEvent struct {
	RoomID   uint           `json:"roomId"`
	Name     string         `json:"name"`
	Mode     string         `json:"mode"`
	Category string         `json:"category,omitempty"`
	Images   []domain.Image `json:"images"`
}

type GuestJoinedEvent struct {
	RoomID    uint   `json:"roomId"`
	GuestID   uint   `json:"guestId"`
	GuestName string `json:"guestName"`
}

type JoinedEvent struct {
	RoomID    uint           `json:"roomId"`
	Name      string         `json:"name"`
	HostName  string         `json:"hostName"`
	GuestName string         `json:"guestName"`
	Mode      string         `json:"mode"`
	Category  string         `json:"category,omitempty"`
	Images    []domain.Image `json:"images"`
}

type GameStartedEvent struct {
	Category string         `json:"category,omitempty"`
	Mode     string         `json:"mode"`
	Images   []domain.Image `json:"images"`
}

type GoBoardEvent struct {
	Turn domain.Role `json:"turn"`
}

// PlayerEvent 只携带角色，用于 characterChosen / startTurn / askPlayAgain
type PlayerEvent struct {
	Player domain.Role `json:"player"`
}

// OutcomeEvent 用于 hostWon / guestWon / hostLost / guestLost
type OutcomeEvent struct {
	Player   domain.Role `json:"player"`
	WinnerID uint        `json:"winnerId,omitempty"`
	Reward   int         `json:"reward,omitempty"`
}

type SelectResultEvent struct {
	Player           domain.Role `json:"player"`
	Right            bool        `json:"right"`
	CharacterID      uint        `json:"characterId"`
	HostCharacterID  *uint       `json:"hostCharacterId"`
	GuestCharacterID *uint       `json:"guestCharacterId"`
	WinnerID         uint        `json:"winnerId,omitempty"`
}

type PlayerLostAllLifesEvent struct {
	Player   domain.Role `json:"player"`
	Winner   domain.Role `json:"winner"`
	WinnerID uint        `json:"winnerId,omitempty"`
}

type RematchCanStartEvent struct {
	Name string `json:"name"`
}

type RematchInvitationEvent struct {
	NewRoomName string `json:"newRoomName"`
	HostID      uint   `json:"hostId"`
	Mode        string `json:"mode"`
	Category    string `json:"category,omitempty"`
	DeckID      *uint  `json:"deckId,omitempty"`
}

// RoomLeftEvent 用于 guestLeftBeforeStart / hostLeftBeforeStart / quit / opponentDisconnected / quitAck
type RoomLeftEvent struct {
	Name   string      `json:"name"`
	Player domain.Role `json:"player,omitempty"`
}

type ErrorEvent struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
