package server

import "encoding/json"

// Client -> Server message types
const (
	MsgCreate   = "create" // create session
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgInput    = "input"
	MsgList     = "list"  // list sessions
	MsgCheck    = "check" // check if session exists
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with a token
	MsgScores   = "scores"
)

// Server -> Client message types
const (
	MsgCreated   = "created" // session created, client should navigate
	MsgJoined    = "joined"
	MsgWelcome   = "welcome"
	MsgSessions  = "sessions"
	MsgChecked   = "checked"
	MsgAuthOK    = "auth_ok"
	MsgScoreList = "score_list"
	MsgDestroyed = "destroyed" // hero destroyed, restart pending
	MsgRunEnded  = "run_ended" // restart happened, carries the finished run
	MsgError     = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D is decoded per type
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is the latest control state, sent whenever it changes
type ClientInput struct {
	X    float64 `json:"x"` // horizontal axis [-1, 1]
	Y    float64 `json:"y"` // vertical axis [-1, 1]
	Fire bool    `json:"fire"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// JoinMsg is sent when a player wants to fly in a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID      string `json:"sid"`
	Exists   bool   `json:"exists"`
	Name     string `json:"name,omitempty"`
	Occupied bool   `json:"occupied,omitempty"`
}

type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms a successful register, login or token resume
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PilotID  int64  `json:"pid"`
}

// ScoresMsg requests the leaderboard
type ScoresMsg struct {
	Limit int `json:"limit"`
}

// WelcomeMsg is sent to a pilot when they join
type WelcomeMsg struct {
	HeroID  uint64   `json:"id"`
	Loadout []string `json:"loadout"`
	Width   float64  `json:"w"`
	Height  float64  `json:"h"`
}

// DestroyedMsg notifies the pilot their ship is down
type DestroyedMsg struct {
	RestartIn float64 `json:"in"`
	Score     int     `json:"sc"`
}

// RunEndedMsg carries the stats of the run that just finished
type RunEndedMsg struct {
	RunID    string  `json:"rid,omitempty"`
	Score    int     `json:"sc"`
	Kills    int     `json:"k"`
	Shots    int     `json:"sh"`
	Pickups  int     `json:"pu"`
	Duration float64 `json:"dur"`
	Weapon   string  `json:"w"`
	HeroID   uint64  `json:"hid"` // the new ship
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Occupied bool   `json:"occupied"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
