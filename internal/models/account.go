package models

import "time"

// AccountModel is the mutable projection of provider user lifecycle
// events. The sync audit trail (SyncEventModel) is the authoritative
// history; this record is derived and may be overwritten by newer
// events at any time.
type AccountModel struct {
	Base
	UserID      string  `json:"user_id"      gorm:"uniqueIndex;not null"`
	Email       string  `json:"email"        gorm:"uniqueIndex"` // stored lowercased
	DisplayName string  `json:"display_name"`
	Tier        string  `json:"tier"         gorm:"default:free"`
	Metadata    JSONMap `json:"metadata"     gorm:"serializer:json"`

	// Usage counters, maintained by the encounter/character/party/monster
	// CRUD collaborators. Read-only from the sync pipeline's perspective.
	EncounterCount int `json:"encounter_count"`
	CharacterCount int `json:"character_count"`
	PartyCount     int `json:"party_count"`
	MonsterCount   int `json:"monster_count"`
}

func (AccountModel) TableName() string { return "accounts" }

// OwnerModel is the single operator account of this deployment.
type OwnerModel struct {
	Base
	Username      string     `json:"username" gorm:"uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"        gorm:"not null"`
	Mail          string     `json:"mail"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`

	APITokens []APIToken `json:"api_tokens,omitempty" gorm:"foreignKey:OwnerID"`
}

func (OwnerModel) TableName() string { return "owners" }

// APIToken represents a personal API token for programmatic access.
type APIToken struct {
	Base
	OwnerID   string     `json:"-"          gorm:"index;not null"`
	Token     string     `json:"token"      gorm:"uniqueIndex;not null"`
	Name      string     `json:"name"`
	ExpiredAt *time.Time `json:"expired_at"`
}

func (APIToken) TableName() string { return "api_tokens" }

// UserSession is a revocable login session backing issued JWTs.
type UserSession struct {
	Base
	OwnerID    string    `json:"-"  gorm:"index;not null"`
	IP         string    `json:"ip"`
	UA         string    `json:"ua" gorm:"type:text"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

func (UserSession) TableName() string { return "user_sessions" }
