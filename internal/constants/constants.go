package constants

type ContextKey string

const (
	ScoreboardCap   = 50
	DefaultPlayer   = "Anonymous"
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	DefaultJSONPath = "/tmp/leaderboard.json"
)

const (
	SessionCookieName = "guessr_session"
	CSRFCookieName    = "csrf_token"
	LangCookieName    = "guessr_lang"
	LangParam         = "lang"
)

const (
	RouteHome       = "/"
	RouteStart      = "/start"
	RouteGame       = "/game"
	RouteScoreboard = "/scoreboard"
	RouteHealthz    = "/healthz"
)

// Canonical feedback messages. They double as i18n catalog keys.
const (
	MsgInvalidInput = "invalid input"
	MsgTooLow       = "too low"
	MsgTooHigh      = "too high"
	MsgWon          = "Congratulations, %s guessed the number %d! You used %d attempts."
	MsgLost         = "Game over! You have used all your attempts. The answer was %d."
)

const (
	ErrorCodeBadRequest      = "bad_request"
	ErrorCodeInvalidInput    = "invalid_input"
	ErrorCodeScoreboardWrite = "scoreboard_write_failed"
	ErrorCodeScoreboardRead  = "scoreboard_read_failed"
	ErrorCodeSessionWrite    = "session_write_failed"
	ErrorCodeCSRF            = "invalid_csrf_token"
	ErrorCodeRateLimited     = "rate_limited"
)

const (
	RequestIDKey ContextKey = "request_id"
)
