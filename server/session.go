package server

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"spaceship-shmup/arena"
	"spaceship-shmup/hero"
	"spaceship-shmup/store"
	"spaceship-shmup/weapon"
)

const (
	TickRate       = 60 // simulation ticks per second
	BroadcastRate  = 30 // snapshots per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate

	maxSessions          = 100
	maxViewersPerSession = 8
)

// SessionIdleTimeout is how long a session with nobody connected survives
var SessionIdleTimeout = 2 * time.Minute

var (
	ErrTooManySessions = errors.New("too many active sessions")
	ErrSessionFull     = errors.New("session full")
)

// Broadcaster is anything a session can push messages to
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// RunRecorder persists finished runs
type RunRecorder interface {
	RecordRun(r store.RunRow) (string, error)
}

// Session is one arena with at most one pilot and a few viewers
type Session struct {
	ID   string
	Name string

	mu         sync.Mutex
	arena      *arena.Arena
	pilot      Broadcaster
	account    Pilot // zero for guests
	creditID   int64 // account flying when the hero was destroyed
	seed       int64
	viewers    map[Broadcaster]bool
	recorder   RunRecorder
	tick       uint64
	stopped    bool
	stop       chan struct{}
	lastActive time.Time
}

func newSession(name string, a *arena.Arena, seed int64, rec RunRecorder) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Name:       name,
		arena:      a,
		seed:       seed,
		viewers:    make(map[Broadcaster]bool),
		recorder:   rec,
		stop:       make(chan struct{}),
		lastActive: time.Now(),
	}
}

// Run starts the session loop
func (s *Session) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	dt := 1.0 / float64(TickRate)
	for {
		select {
		case <-ticker.C:
			s.step(dt)
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the session loop and tears the arena down
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arena.Close()
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}

// step advances the arena one tick and relays what happened
func (s *Session) step(dt float64) {
	s.mu.Lock()
	s.arena.Tick(dt)
	s.tick++

	var finished []arena.RunStats
	var credited []int64
	for _, ev := range s.arena.Events() {
		switch ev.Kind {
		case arena.EventHeroDestroyed:
			s.creditID = s.account.ID
			if s.pilot != nil {
				s.pilot.SendJSON(Envelope{T: MsgDestroyed, Data: DestroyedMsg{
					RestartIn: ev.RestartIn,
					Score:     s.arena.Run().Score,
				}})
			}
		case arena.EventRestarted:
			if ev.Run != nil {
				finished = append(finished, *ev.Run)
				credited = append(credited, s.creditID)
			}
			s.creditID = 0
		}
	}

	if s.tick%BroadcastEvery == 0 {
		s.broadcastState()
	}
	pilot := s.pilot
	heroID := uint64(s.arena.Hero().ID())
	s.mu.Unlock()

	// database writes happen outside the lock
	for i, run := range finished {
		msg := s.recordRun(run, credited[i])
		msg.HeroID = heroID
		if pilot != nil {
			pilot.SendJSON(Envelope{T: MsgRunEnded, Data: msg})
		}
	}
}

func (s *Session) recordRun(run arena.RunStats, pilotID int64) RunEndedMsg {
	msg := RunEndedMsg{
		Score:    run.Score,
		Kills:    run.Kills,
		Shots:    run.ShotsFired,
		Pickups:  run.Pickups,
		Duration: run.Duration,
		Weapon:   run.Weapon.String(),
	}
	if s.recorder == nil {
		return msg
	}
	id, err := s.recorder.RecordRun(store.RunRow{
		PilotID:    pilotID,
		Score:      run.Score,
		Kills:      run.Kills,
		ShotsFired: run.ShotsFired,
		Pickups:    run.Pickups,
		Duration:   run.Duration,
		Weapon:     run.Weapon.String(),
	})
	if err != nil {
		log.Printf("session %s: record run: %v", s.ID, err)
		return msg
	}
	msg.RunID = id
	return msg
}

// broadcastState sends the current snapshot to the pilot and viewers
func (s *Session) broadcastState() {
	if s.pilot == nil && len(s.viewers) == 0 {
		return
	}
	snap := s.arena.Snapshot()
	data, err := arena.EncodeSnapshot(snap)
	if err != nil {
		log.Printf("session %s: encode snapshot: %v", s.ID, err)
		return
	}
	if s.pilot != nil {
		s.pilot.SendBinary(data)
	}
	for v := range s.viewers {
		v.SendBinary(data)
	}
}

// Join attaches c to the session. The first client becomes the pilot, later
// ones watch.
func (s *Session) Join(c Broadcaster, account Pilot) (bool, WelcomeMsg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()
	b := s.arena.Bounds()
	welcome := WelcomeMsg{
		HeroID: uint64(s.arena.Hero().ID()),
		Width:  b.HalfWidth * 2,
		Height: b.HalfHeight * 2,
	}
	for _, t := range s.arena.Hero().Loadout() {
		welcome.Loadout = append(welcome.Loadout, t.String())
	}

	if s.pilot == nil {
		s.pilot = c
		s.account = account
		return true, welcome, nil
	}
	if s.pilot == c || s.viewers[c] {
		return s.pilot == c, welcome, nil
	}
	if len(s.viewers) >= maxViewersPerSession {
		return false, welcome, ErrSessionFull
	}
	s.viewers[c] = true
	return false, welcome, nil
}

// Remove detaches c. The arena keeps running until the session is reaped.
func (s *Session) Remove(c Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pilot == c {
		s.pilot = nil
		s.account = Pilot{}
		s.arena.SetInput(hero.Input{})
	}
	delete(s.viewers, c)
	s.lastActive = time.Now()
}

// SetInput applies controls from c if it is the pilot
func (s *Session) SetInput(c Broadcaster, in ClientInput) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pilot != c {
		return false
	}
	s.arena.SetInput(hero.Input{X: in.X, Y: in.Y, Fire: in.Fire})
	s.lastActive = time.Now()
	return true
}

// Occupied reports whether a pilot is flying
func (s *Session) Occupied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pilot != nil
}

// Empty reports whether nobody is connected
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pilot == nil && len(s.viewers) == 0
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      arena.Config
	catalog  *weapon.Catalog
	seed     int64
	created  int64
	recorder RunRecorder
}

// NewSessionManager creates a SessionManager. rec may be nil.
func NewSessionManager(cfg arena.Config, catalog *weapon.Catalog, seed int64, rec RunRecorder) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		catalog:  catalog,
		seed:     seed,
		recorder: rec,
	}
}

// CreateSession creates and starts a new session
func (sm *SessionManager) CreateSession(name string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil, ErrTooManySessions
	}

	seed := sm.seed
	if seed != 0 {
		// distinct but reproducible per session
		seed += sm.created
	}
	a, err := arena.New(sm.cfg, sm.catalog, seed)
	if err != nil {
		return nil, err
	}
	sm.created++
	sess := newSession(name, a, seed, sm.recorder)
	sm.sessions[sess.ID] = sess
	go sess.Run()
	log.Printf("session %s (%s) created", sess.ID, name)
	return sess, nil
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Leave detaches c from a session
func (sm *SessionManager) Leave(sessionID string, c Broadcaster) {
	if sess := sm.GetSession(sessionID); sess != nil {
		sess.Remove(c)
	}
}

// ReapIdle stops sessions that have been empty for SessionIdleTimeout
func (sm *SessionManager) ReapIdle(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	n := 0
	for id, sess := range sm.sessions {
		if !sess.Empty() || now.Sub(sess.idleSince()) < SessionIdleTimeout {
			continue
		}
		sess.Stop()
		delete(sm.sessions, id)
		log.Printf("session %s reaped", id)
		n++
	}
	return n
}

// StopAll stops every session
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Stop()
		delete(sm.sessions, id)
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:       sess.ID,
			Name:     sess.Name,
			Occupied: sess.Occupied(),
		})
	}
	return list
}
