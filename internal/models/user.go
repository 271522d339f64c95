package models

import (
	"time"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	KakaoID      *string   `gorm:"type:varchar(64);uniqueIndex" json:"kakao_id,omitempty"`
	Email        string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Nickname     string    `gorm:"type:varchar(100)" json:"nickname"`
	ProfileImage string    `gorm:"type:varchar(512)" json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasKakaoAccount reports whether the user signed up through Kakao.
func (u User) HasKakaoAccount() bool {
	return u.KakaoID != nil && *u.KakaoID != ""
}
