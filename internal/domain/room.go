package domain

import "time"

// 房间状态
const (
	RoomStatusOpen   = "open"   // 等待客人加入
	RoomStatusClosed = "closed" // 客人已加入，不再接受新客人
)

// 房间内容模式
const (
	ModeCategory = "category" // 按系统分类取图
	ModeCustom   = "custom"   // 玩家自定义图库 (卡组或旧版个人图库)
)

// Role 表示房间内的玩家角色。
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Valid 判断角色是否为 host 或 guest。
func (r Role) Valid() bool { return r == RoleHost || r == RoleGuest }

// Opponent 返回对手的角色。
func (r Role) Opponent() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// Room 表示一个两人猜人游戏房间。
type Room struct {
	ID               uint      `gorm:"primaryKey"`
	Name             string    `gorm:"uniqueIndex;size:191;not null"`            // 玩家自定义的房间名，全局唯一
	Status           string    `gorm:"size:16;not null;default:open;index"`      // open / closed
	HostPlayerID     uint      `gorm:"index;not null"`                           // 房主用户 ID
	GuestPlayerID    *uint     `gorm:"index"`                                    // 客人加入前为 NULL
	HostCharacterID  *uint                                                       // 房主选定的角色 (图片 ID)
	GuestCharacterID *uint                                                       // 客人选定的角色 (图片 ID)
	Mode             string    `gorm:"size:16;not null;default:category"`        // category / custom
	Category         string    `gorm:"size:100"`                                 // 分类模式下的分类名
	DeckID           *uint                                                       // 自定义模式下的卡组 ID
	LibraryOwnerID   *uint                                                       // 旧版自定义模式下的图库所有者
	WinnerPlayerID   *uint                                                       // 本局胜者，决出胜负前为 NULL
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Started 判断游戏是否已经开始：任一方选定角色即视为开始。
func (r *Room) Started() bool {
	return r.HostCharacterID != nil || r.GuestCharacterID != nil
}

// Decided 判断本局是否已经决出胜负
func (r *Room) Decided() bool { return r.WinnerPlayerID != nil }

// Selector 返回房间持久化的内容选择器。
func (r *Room) Selector() ContentSelector {
	return ContentSelector{
		Mode:           r.Mode,
		Category:       r.Category,
		DeckID:         r.DeckID,
		LibraryOwnerID: r.LibraryOwnerID,
	}
}

// CharacterOf 返回指定角色选定的角色 ID。
func (r *Room) CharacterOf(role Role) *uint {
	if role == RoleHost {
		return r.HostCharacterID
	}
	return r.GuestCharacterID
}

// PlayerOf 返回指定角色的用户 ID，客人未加入时返回 0。
func (r *Room) PlayerOf(role Role) uint {
	if role == RoleHost {
		return r.HostPlayerID
	}
	if r.GuestPlayerID == nil {
		return 0
	}
	return *r.GuestPlayerID
}

// ContentSelector 描述一局游戏使用哪一组图片。
type ContentSelector struct {
	Mode           string
	Category       string
	DeckID         *uint
	LibraryOwnerID *uint
}

// RoomImage 记录房间与图片之间的关联 (房间的内容链接)。
type RoomImage struct {
	ID      uint `gorm:"primaryKey"`
	RoomID  uint `gorm:"index;not null"`
	ImageID uint `gorm:"not null"`
}
