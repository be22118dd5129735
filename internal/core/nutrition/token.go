package nutrition

import (
	"time"
)

// DefaultExpiryMargin 剩餘壽命低於此值即視為即將過期
const DefaultExpiryMargin = 5 * time.Minute

// TokenState token 狀態
type TokenState int

const (
	NoToken TokenState = iota
	Valid
	ExpiringSoon
	Expired
)

func (s TokenState) String() string {
	switch s {
	case Valid:
		return "valid"
	case ExpiringSoon:
		return "expiring_soon"
	case Expired:
		return "expired"
	default:
		return "no_token"
	}
}

// AuthToken OAuth2 client credentials 取得的存取權杖
type AuthToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// State 依目前時間與安全邊際判斷狀態
func (t *AuthToken) State(now time.Time, margin time.Duration) TokenState {
	if t == nil || t.AccessToken == "" {
		return NoToken
	}
	remaining := t.ExpiresAt.Sub(now)
	switch {
	case remaining <= 0:
		return Expired
	case remaining < margin:
		return ExpiringSoon
	default:
		return Valid
	}
}
