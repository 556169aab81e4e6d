package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	game "github.com/CodeAndHammer/guessr/internal/game"
	i18n "github.com/CodeAndHammer/guessr/internal/i18n"
	models "github.com/CodeAndHammer/guessr/internal/models"
	session "github.com/CodeAndHammer/guessr/internal/session"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

type startRequest struct {
	Name       string `json:"name" form:"name"`
	Difficulty string `json:"difficulty" form:"difficulty"`
}

type guessRequest struct {
	Guess guessValue `json:"guess" form:"guess"`
}

// guessValue accepts a JSON string or a bare JSON number. A number keeps its
// literal text, so 12.5 or -3 still fail guess parsing.
type guessValue string

func (g *guessValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*g = guessValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("guess must be a string or a number: %w", err)
	}
	*g = guessValue(n.String())
	return nil
}

type difficultyView struct {
	Difficulty  models.Difficulty `json:"difficulty"`
	Label       string            `json:"label"`
	RangeMax    int               `json:"range_max"`
	MaxAttempts int               `json:"max_attempts"`
}

type roundView struct {
	Name         string            `json:"name"`
	Difficulty   models.Difficulty `json:"difficulty"`
	Label        string            `json:"label"`
	RangeMax     int               `json:"range_max"`
	AttemptsUsed int               `json:"attempts_used"`
	AttemptsLeft int               `json:"attempts_left"`
	Message      string            `json:"message"`
	Error        string            `json:"error,omitempty"`
}

type resultView struct {
	Result     string            `json:"result"`
	Win        bool              `json:"win"`
	Target     int               `json:"target"`
	Attempts   int               `json:"attempts"`
	Difficulty models.Difficulty `json:"difficulty"`
}

// printer resolves the request language and persists an explicit ?lang=.
func printer(c *gin.Context) *message.Printer {
	tag, persist := i18n.ResolveTag(c.Request)
	if persist {
		i18n.SetLanguageCookie(c.Writer, tag)
	}
	return i18n.Printer(tag)
}

// wantsJSON is true for API clients; browser form posts get redirects.
func wantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return c.ContentType() == gin.MIMEJSON
}

func newRoundView(p *message.Printer, gs *models.GameSession) roundView {
	msg := gs.LastMessage
	if msg != "" {
		msg = p.Sprintf(msg)
	}
	return roundView{
		Name:         gs.PlayerName,
		Difficulty:   gs.Difficulty,
		Label:        i18n.DifficultyLabel(p, gs.Difficulty),
		RangeMax:     gs.RangeMax,
		AttemptsUsed: gs.AttemptsUsed,
		AttemptsLeft: gs.AttemptsLeft(),
		Message:      msg,
	}
}

func HomeHandler(app *models.App, c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "guessr",
		"endpoints": []string{
			"GET " + constants.RouteHealthz,
			"GET " + constants.RouteStart,
			"POST " + constants.RouteStart,
			"GET " + constants.RouteGame,
			"POST " + constants.RouteGame,
			"GET " + constants.RouteScoreboard,
		},
		"languages": lo.Map(i18n.Supported(), func(tag language.Tag, _ int) string {
			return tag.String()
		}),
	})
}

// StartFormHandler lists the difficulties a round can be started with.
func StartFormHandler(app *models.App, c *gin.Context) {
	p := printer(c)
	views := lo.Map(game.AllRules(), func(r game.Rules, _ int) difficultyView {
		return difficultyView{
			Difficulty:  r.Difficulty,
			Label:       i18n.DifficultyLabel(p, r.Difficulty),
			RangeMax:    r.RangeMax,
			MaxAttempts: r.MaxAttempts,
		}
	})
	c.JSON(http.StatusOK, gin.H{"difficulties": views})
}

func StartHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	var req startRequest
	if err := c.ShouldBind(&req); err != nil {
		util.Ctx(ctx).Warn().Err(err).Msg("Failed to bind start request")
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrorCodeBadRequest})
		return
	}

	gs := game.Start(ctx, req.Name, game.ParseDifficulty(req.Difficulty))
	if _, err := session.Save(app, c, "", gs); err != nil {
		util.Ctx(ctx).Error().Err(err).Msg("Failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": constants.ErrorCodeSessionWrite})
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, newRoundView(printer(c), gs))
		return
	}
	c.Redirect(http.StatusSeeOther, constants.RouteGame)
}

func GameStateHandler(app *models.App, c *gin.Context) {
	gs, _, err := session.Load(app, c)
	if err != nil {
		c.Redirect(http.StatusSeeOther, constants.RouteStart)
		return
	}
	c.JSON(http.StatusOK, newRoundView(printer(c), gs))
}

func GuessHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	gs, sessionID, err := session.Load(app, c)
	if err != nil {
		c.Redirect(http.StatusSeeOther, constants.RouteStart)
		return
	}

	var req guessRequest
	if err := c.ShouldBind(&req); err != nil {
		util.Ctx(ctx).Warn().Err(err).Msg("Failed to bind guess request")
		req.Guess = ""
	}
	input := string(req.Guess)

	p := printer(c)
	outcome, err := game.Guess(ctx, gs, input)
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		util.Ctx(ctx).Info().Str("session", sessionID).Str("input", input).Msg("Rejected invalid guess")
	case errors.Is(err, game.ErrNoRound):
		session.Clear(app, c)
		c.Redirect(http.StatusSeeOther, constants.RouteStart)
		return
	case err != nil:
		util.LogError(err, "Guess failed for session %s", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": constants.ErrorCodeBadRequest})
		return
	}

	if !outcome.Terminal() {
		if _, err := session.Save(app, c, sessionID, gs); err != nil {
			util.Ctx(ctx).Error().Err(err).Msg("Failed to save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": constants.ErrorCodeSessionWrite})
			return
		}
		view := newRoundView(p, gs)
		if errors.Is(err, game.ErrInvalidInput) {
			view.Error = constants.ErrorCodeInvalidInput
		}
		c.JSON(http.StatusOK, view)
		return
	}

	session.Clear(app, c)
	if !session.Finish(app, sessionID) {
		util.Ctx(ctx).Warn().Str("session", sessionID).Msg("Ignored guess on a finished round")
		c.Redirect(http.StatusSeeOther, constants.RouteStart)
		return
	}
	result := resultView{
		Win:        outcome.State == game.StateWon,
		Target:     outcome.Target,
		Attempts:   outcome.AttemptsUsed,
		Difficulty: gs.Difficulty,
	}
	if result.Win {
		if err := app.Scores.Record(ctx, gs.Difficulty, gs.PlayerName, outcome.AttemptsUsed); err != nil {
			util.Ctx(ctx).Error().Err(err).Str("path", app.Scores.Location()).Msg("Failed to record score")
			c.JSON(http.StatusInternalServerError, gin.H{"error": constants.ErrorCodeScoreboardWrite})
			return
		}
		result.Result = p.Sprintf(constants.MsgWon, gs.PlayerName, outcome.Target, outcome.AttemptsUsed)
	} else {
		result.Result = p.Sprintf(constants.MsgLost, outcome.Target)
	}
	c.JSON(http.StatusOK, result)
}

func ScoreboardHandler(app *models.App, c *gin.Context) {
	board, err := app.Scores.View(c.Request.Context())
	if err != nil {
		util.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to read scoreboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": constants.ErrorCodeScoreboardRead})
		return
	}
	c.JSON(http.StatusOK, board)
}

func HealthzHandler(app *models.App, c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"backend":   app.Scores.Backend(),
		"path":      app.Scores.Location(),
		"env":       map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"uptime":    util.FormatUptime(time.Since(app.StartTime)),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
