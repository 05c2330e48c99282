package model

import "strings"

// 権限コード
type Permission struct {
	Code string `json:"code"`
}

// ログインユーザーの情報
type Identity struct {
	Email       string       `json:"email"`
	IsStaff     bool         `json:"isStaff"`
	Permissions []Permission `json:"userPermissions"`
}

// HasPermission は権限コードを持っているか。
func (i Identity) HasPermission(code string) bool {
	for _, p := range i.Permissions {
		if p.Code == code {
			return true
		}
	}
	return false
}

// Session はトークンとユーザーの組。
// 両方そろっている時だけログイン済みとみなす。
type Session struct {
	Token    string    `json:"token,omitempty"`
	Identity *Identity `json:"user,omitempty"`
}

func (s Session) IsAuthenticated() bool {
	return strings.TrimSpace(s.Token) != "" && s.Identity != nil
}

// 保存用に Identity をコピーする
func (s Session) Clone() Session {
	if s.Identity == nil {
		return s
	}
	id := *s.Identity
	id.Permissions = append([]Permission(nil), s.Identity.Permissions...)
	s.Identity = &id
	return s
}
