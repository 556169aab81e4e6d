// Package session keeps the round state in a signed cookie. The cookie holds
// an HS256 JWT whose claims carry the whole GameSession, so the server keeps
// no session table. The payload is signed, not encrypted.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	game "github.com/CodeAndHammer/guessr/internal/game"
	models "github.com/CodeAndHammer/guessr/internal/models"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

var ErrNoSession = errors.New("no active session")

type Claims struct {
	Round models.GameSession `json:"round"`
	jwt.RegisteredClaims
}

// Sign encodes gs as a session token. An empty id starts a new session.
func Sign(app *models.App, id string, gs *models.GameSession) (string, time.Time, error) {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	exp := now.Add(app.SessionTTL)
	claims := Claims{
		Round: *gs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(app.SessionSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// Parse verifies a session token and returns its claims. Bad signatures,
// expired tokens and rounds that break the game invariants are ErrNoSession.
func Parse(app *models.App, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return app.SessionSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if !game.Validate(&claims.Round) {
		return nil, fmt.Errorf("%w: invalid round", ErrNoSession)
	}
	if isFinished(app, claims.ID) {
		return nil, fmt.Errorf("%w: round %s already finished", ErrNoSession, claims.ID)
	}
	return claims, nil
}

// Load returns the round carried by the request cookie, with its session id.
func Load(app *models.App, c *gin.Context) (*models.GameSession, string, error) {
	token, err := c.Cookie(constants.SessionCookieName)
	if err != nil {
		return nil, "", ErrNoSession
	}
	claims, err := Parse(app, token)
	if err != nil {
		util.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected session cookie")
		return nil, "", ErrNoSession
	}
	round := claims.Round
	return &round, claims.ID, nil
}

// Save writes gs to the session cookie and returns the session id.
func Save(app *models.App, c *gin.Context, id string, gs *models.GameSession) (string, error) {
	if id == "" {
		id = uuid.NewString()
		util.Ctx(c.Request.Context()).Info().Str("session", id).Msg("Created new session")
	}
	token, _, err := Sign(app, id, gs)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, token, int(app.SessionTTL.Seconds()), "/", "", app.IsProduction, true)
	return id, nil
}

// Clear expires the session cookie, ending the round.
func Clear(app *models.App, c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, "", -1, "/", "", app.IsProduction, true)
}

// Finish marks the round with session id as over, so cookies replayed from it
// are rejected until they would have expired. It returns false when the round
// had already been finished.
func Finish(app *models.App, id string) bool {
	app.FinishedMutex.Lock()
	defer app.FinishedMutex.Unlock()

	now := time.Now()
	if exp, ok := app.FinishedRounds[id]; ok && now.Before(exp) {
		return false
	}
	if app.FinishedRounds == nil {
		app.FinishedRounds = make(map[string]time.Time)
	}
	app.FinishedRounds[id] = now.Add(app.SessionTTL)
	return true
}

func isFinished(app *models.App, id string) bool {
	app.FinishedMutex.Lock()
	defer app.FinishedMutex.Unlock()
	exp, ok := app.FinishedRounds[id]
	return ok && time.Now().Before(exp)
}

// PruneFinished forgets finished rounds whose cookies have all expired.
func PruneFinished(app *models.App) int {
	app.FinishedMutex.Lock()
	defer app.FinishedMutex.Unlock()

	now := time.Now()
	removed := 0
	for id, exp := range app.FinishedRounds {
		if !now.Before(exp) {
			delete(app.FinishedRounds, id)
			removed++
		}
	}
	return removed
}
