package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxScoreLimit     = 100
)

// frame is one queued websocket message
type frame struct {
	binary bool
	data   []byte
}

// Client is one websocket connection. It flies or watches at most one
// session at a time.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	remoteAddr string
	sessionID  string
	account    Pilot

	mu     sync.Mutex
	send   chan frame
	closed bool

	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan frame, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			return
		}
		if !c.allowMessage(time.Now()) {
			log.Printf("%s sent more than %d messages/s, disconnecting", c.remoteAddr, maxMessagesPerSec)
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) allowMessage(now time.Time) bool {
	if now.After(c.msgResetAt) {
		c.msgCount = 0
		c.msgResetAt = now.Add(time.Second)
	}
	c.msgCount++
	return c.msgCount <= maxMessagesPerSec
}

// WritePump drains the send queue onto the connection and keeps it alive
// with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var kind int
		var data []byte
		select {
		case f, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind, data = websocket.TextMessage, f.data
			if f.binary {
				kind = websocket.BinaryMessage
			}
		case <-ticker.C:
			kind = websocket.PingMessage
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

// SendJSON queues a JSON text message
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.enqueue(frame{data: data})
}

// SendBinary queues an encoded snapshot
func (c *Client) SendBinary(data []byte) {
	c.enqueue(frame{binary: true, data: data})
}

// enqueue drops the frame if the client is gone or too slow to keep up
func (c *Client) enqueue(f frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- f:
	default:
	}
}

// close ends the send queue. WritePump then says goodbye and exits.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgScores:
		c.handleScores(env.D)
	}
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "Sector"
	}
	if len(sname) > 30 {
		sname = sname[:30]
	}

	sess, err := c.hub.sessions.CreateSession(sname)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if c.sessionID != "" && c.sessionID != sess.ID {
		c.handleLeave()
	}

	pilot, welcome, err := sess.Join(c, c.account)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.sessionID = sess.ID

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]interface{}{"sid": sess.ID, "pilot": pilot}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: welcome})
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.sessionID == "" {
		return
	}
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.SetInput(c, input)
}

func (c *Client) handleLeave() {
	if c.sessionID != "" {
		c.hub.sessions.Leave(c.sessionID, c)
		c.sessionID = ""
	}
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:      msg.SID,
		Exists:   true,
		Name:     sess.Name,
		Occupied: sess.Occupied(),
	}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.accounts == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	p, token, err := c.hub.accounts.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendAccountError(err)
		return
	}
	c.signedIn(p, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.accounts == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	now := time.Now()
	if c.hub.LoginLocked(c.remoteAddr, now) {
		c.sendError(ErrLoginLocked.Error())
		return
	}
	p, token, err := c.hub.accounts.Login(msg.Username, msg.Password)
	if errors.Is(err, ErrBadCredentials) {
		c.hub.TrackLogin(c.remoteAddr, false, now)
	}
	if err != nil {
		c.sendAccountError(err)
		return
	}
	c.hub.TrackLogin(c.remoteAddr, true, now)
	c.signedIn(p, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.accounts == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	p, err := c.hub.accounts.Resume(msg.Token)
	if err != nil {
		c.sendAccountError(err)
		return
	}
	c.signedIn(p, msg.Token)
}

// sendAccountError shows account errors to the player and logs the rest
func (c *Client) sendAccountError(err error) {
	switch {
	case errors.Is(err, ErrBadCallsign), errors.Is(err, ErrBadPassword),
		errors.Is(err, ErrCallsignTaken), errors.Is(err, ErrBadCredentials),
		errors.Is(err, ErrBadToken):
		c.sendError(err.Error())
	default:
		log.Printf("accounts: %s: %v", c.remoteAddr, err)
		c.sendError("internal error")
	}
}

// signedIn sets the pilot for runs started from the next join. A session
// already being flown keeps crediting whoever joined it.
func (c *Client) signedIn(p Pilot, token string) {
	c.account = p
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: p.Name,
		PilotID:  p.ID,
	}})
}

func (c *Client) handleScores(data json.RawMessage) {
	if c.hub.db == nil {
		c.sendError("leaderboard disabled")
		return
	}
	msg := ScoresMsg{Limit: 10}
	if len(data) > 0 {
		json.Unmarshal(data, &msg)
	}
	if msg.Limit <= 0 || msg.Limit > maxScoreLimit {
		msg.Limit = 10
	}
	scores, err := c.hub.db.TopRuns(msg.Limit)
	if err != nil {
		log.Printf("scores: %v", err)
		c.sendError("database error")
		return
	}
	c.SendJSON(Envelope{T: MsgScoreList, Data: scores})
}
