package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyNickname = "nickname"
	ContextKeyTask     = "task"
	ContextKeyTodo     = "todo"

	SessionCookieName = "todo_session"
	SessionKeyState   = "oauth_state"
)

// Task constraints
const (
	MinTaskPoints = 0

	// Generated tasks are clamped into this range before reaching any other component.
	MinGeneratedPoints = 1
	MaxGeneratedPoints = 10

	MaxAIGeneratedTasks = 20
)

// Auth defaults
const (
	DefaultNickname     = "오소리"
	DefaultProfileImage = "https://gift-s.kakaocdn.net/dn/gift/images/m960/profile_default.png"
	DefaultTokenTTL     = 30 * time.Minute
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"
