package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"spaceship-shmup/store"
)

const (
	tokenIssuer     = "shmup"
	tokenTTL        = 7 * 24 * time.Hour
	secretSetting   = "token_secret"
	minPasswordLen  = 4
	maxPasswordLen  = 72 // bcrypt ignores the rest
	loginFailWindow = time.Minute
	maxLoginFails   = 10
)

// BcryptCost is the password hashing cost. Tests lower it.
var BcryptCost = bcrypt.DefaultCost

// callsigns end up on the scoreboard
var callsignPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,16}$`)

var (
	ErrBadCallsign    = errors.New("callsign must be 2-16 letters, digits, '-' or '_'")
	ErrBadPassword    = fmt.Errorf("password must be %d-%d characters", minPasswordLen, maxPasswordLen)
	ErrCallsignTaken  = errors.New("callsign already taken")
	ErrBadCredentials = errors.New("invalid callsign or password")
	ErrBadToken       = errors.New("invalid token")
	ErrLoginLocked    = errors.New("too many failed logins, try again later")
)

// Pilot is who a connection flies as. The zero value is a guest.
type Pilot struct {
	ID   int64
	Name string
}

// pilotClaims carries the pilot ID in the subject
type pilotClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Accounts registers pilots and issues the tokens that tie runs to them
type Accounts struct {
	db     *store.DB
	secret []byte
	now    func() time.Time
}

// NewAccounts loads the signing secret from db, creating one on first use
func NewAccounts(db *store.DB) *Accounts {
	return &Accounts{db: db, secret: signingSecret(db), now: time.Now}
}

func signingSecret(db *store.DB) []byte {
	if b, err := hex.DecodeString(db.GetSetting(secretSetting)); err == nil && len(b) == 32 {
		return b
	}
	secret := make([]byte, 32)
	rand.Read(secret)
	if err := db.SetSetting(secretSetting, hex.EncodeToString(secret)); err != nil {
		log.Printf("accounts: tokens will not survive a restart: %v", err)
	}
	return secret
}

// Register creates an account and signs the pilot in
func (a *Accounts) Register(callsign, password string) (Pilot, string, error) {
	callsign = strings.TrimSpace(callsign)
	if !callsignPattern.MatchString(callsign) {
		return Pilot{}, "", ErrBadCallsign
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return Pilot{}, "", ErrBadPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return Pilot{}, "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.db.CreatePilot(callsign, string(hash))
	if errors.Is(err, store.ErrNameTaken) {
		return Pilot{}, "", ErrCallsignTaken
	}
	if err != nil {
		return Pilot{}, "", fmt.Errorf("create pilot: %w", err)
	}
	p := Pilot{ID: id, Name: callsign}
	token, err := a.issue(p)
	return p, token, err
}

// Login checks a password. A wrong callsign and a wrong password both
// yield ErrBadCredentials.
func (a *Accounts) Login(callsign, password string) (Pilot, string, error) {
	row, err := a.db.GetPilotByName(strings.TrimSpace(callsign))
	if err != nil {
		return Pilot{}, "", fmt.Errorf("look up pilot: %w", err)
	}
	if row == nil || row.PassHash == "" {
		return Pilot{}, "", ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PassHash), []byte(password)) != nil {
		return Pilot{}, "", ErrBadCredentials
	}
	p := Pilot{ID: row.ID, Name: row.Name}
	token, err := a.issue(p)
	return p, token, err
}

// Resume turns a token back into its pilot. The name comes from the store,
// so a token outliving its account is rejected.
func (a *Accounts) Resume(token string) (Pilot, error) {
	claims := &pilotClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return Pilot{}, ErrBadToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Pilot{}, ErrBadToken
	}
	row, err := a.db.GetPilotByID(id)
	if err != nil {
		return Pilot{}, fmt.Errorf("look up pilot: %w", err)
	}
	if row == nil {
		return Pilot{}, ErrBadToken
	}
	return Pilot{ID: row.ID, Name: row.Name}, nil
}

func (a *Accounts) issue(p Pilot) (string, error) {
	now := a.now()
	claims := pilotClaims{
		Name: p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
