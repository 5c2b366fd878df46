package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/jortega/fuelwatch/internal/api"
	"github.com/jortega/fuelwatch/internal/logging"
	"github.com/jortega/fuelwatch/internal/models"
)

// State is the controller's position in the auth lifecycle.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateVerifying     State = "verifying"
	StateAuthenticated State = "authenticated"
)

// ErrSessionExpired is returned when a previously valid token is rejected
// by the server (or is locally known to be past its expiry).
var ErrSessionExpired = errors.New("session expired")

// expiredNotice is the one-time user-visible message set on expiry.
const expiredNotice = "Your session has expired. Please sign in again."

// ValidationError is a client-side rejection of a form field. It never
// reaches the network layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects per-field rejections from a single submission.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Snapshot is a copy of the controller state handed to consumers and
// listeners. IsAuthenticated is true only after a verify-or-login round
// trip succeeded in this process.
type Snapshot struct {
	State           State
	Token           string
	User            *models.UserProfile
	IsAuthenticated bool
	IsLoading       bool
	LastError       string
}

// Controller orchestrates login, registration, logout, and silent
// re-verification, reconciling its in-memory state with the durable Store.
// It owns the session exclusively; the Store is its passive mirror.
//
// The controller never navigates. It emits a session-expired event instead;
// whoever owns navigation subscribes via OnSessionExpired.
type Controller struct {
	apiClient api.Client
	store     Store
	log       logging.Logger

	mu        sync.Mutex
	state     State
	token     string
	user      *models.UserProfile
	lastError string

	changeFns  []func(Snapshot)
	expiredFns []func(string)

	// verifying shares one /users/me round trip among concurrent Verify
	// calls for the same token.
	verifying singleflight.Group

	now func() time.Time
}

func NewController(client api.Client, store Store, log logging.Logger) *Controller {
	return &Controller{
		apiClient: client,
		store:     store,
		log:       log,
		state:     StateAnonymous,
		now:       time.Now,
	}
}

// OnChange registers a listener for state-change notifications. Listeners
// never see spurious updates: a re-verification that returns an identical
// profile does not fire.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changeFns = append(c.changeFns, fn)
}

// OnSessionExpired registers a listener for the one-time expiry notice.
func (c *Controller) OnSessionExpired(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiredFns = append(c.expiredFns, fn)
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	var user *models.UserProfile
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return Snapshot{
		State:           c.state,
		Token:           c.token,
		User:            user,
		IsAuthenticated: c.state == StateAuthenticated && c.token != "" && c.user != nil,
		IsLoading:       c.state == StateVerifying,
		LastError:       c.lastError,
	}
}

// Token returns the current bearer token ("" when anonymous). Callers
// capture the value at dispatch time; the controller never rewrites headers
// of calls already in flight.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Controller) notifyChange() {
	c.mu.Lock()
	fns := append([]func(Snapshot){}, c.changeFns...)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) notifyExpired(msg string) {
	c.mu.Lock()
	fns := append([]func(string){}, c.expiredFns...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

// Init loads the durable store and, when a token is present, silently
// re-verifies it against the server. With no stored token the session stays
// anonymous with no message.
func (c *Controller) Init(ctx context.Context) error {
	token, user, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn(ctx, "session store unreadable, starting anonymous", "error", err)
		token, user = "", nil
	}
	if token == "" {
		return nil
	}

	c.mu.Lock()
	c.token = token
	c.user = user
	c.state = StateVerifying
	c.mu.Unlock()

	return c.Verify(ctx)
}

// Verify checks the current token against the server. Concurrent calls for
// an unchanged token share a single /users/me round trip. A rejected token
// clears the store, emits the expired notice exactly once, and returns
// ErrSessionExpired; a token the client can already tell is past its expiry
// is treated the same without the round trip.
func (c *Controller) Verify(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	if token == "" {
		changed := c.state != StateAnonymous || c.user != nil
		c.state = StateAnonymous
		c.user = nil
		c.mu.Unlock()
		if changed {
			c.notifyChange()
		}
		return nil
	}
	c.state = StateVerifying
	c.mu.Unlock()

	if exp, ok := tokenExpiry(token); ok && !exp.After(c.now()) {
		c.log.Info(ctx, "stored token past its expiry, clearing session")
		c.expire(ctx)
		return ErrSessionExpired
	}

	v, err, _ := c.verifying.Do(token, func() (any, error) {
		return c.apiClient.CurrentUser(ctx, token)
	})

	c.mu.Lock()
	if c.token != token {
		// Token changed while the call was in flight; this result is stale.
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			c.log.Info(ctx, "server rejected stored token", "error", err)
			c.expire(ctx)
			return ErrSessionExpired
		}
		// Transport or server fault: the token may still be good, keep it
		// stored for the next attempt but stay unauthenticated.
		c.mu.Lock()
		c.state = StateAnonymous
		c.lastError = err.Error()
		c.mu.Unlock()
		c.notifyChange()
		return err
	}

	profile := v.(models.UserProfile)

	c.mu.Lock()
	sameProfile := c.user != nil && c.user.Equal(profile)
	stateChanged := c.state != StateAuthenticated
	if !sameProfile {
		p := profile
		c.user = &p
	}
	c.state = StateAuthenticated
	c.lastError = ""
	c.mu.Unlock()

	if !sameProfile {
		if err := c.store.Save(ctx, token, profile); err != nil {
			c.log.Warn(ctx, "failed to persist refreshed profile", "error", err)
		}
	}
	if stateChanged || !sameProfile {
		c.notifyChange()
	}
	return nil
}

// expire clears the store and in-memory state and fires the one-time
// expired notice. Afterwards the token is empty, so a subsequent Verify
// takes the no-token path and cannot loop.
func (c *Controller) expire(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn(ctx, "failed to clear session store", "error", err)
	}
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.state = StateAnonymous
	c.lastError = expiredNotice
	c.mu.Unlock()
	c.notifyExpired(expiredNotice)
	c.notifyChange()
}

// fail records a login/register failure as a single form-level message and
// resets the session to anonymous with nothing persisted.
func (c *Controller) fail(err error) {
	msg := err.Error()
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.Detail
	}
	c.mu.Lock()
	c.state = StateAnonymous
	c.token = ""
	c.user = nil
	c.lastError = msg
	c.mu.Unlock()
	c.notifyChange()
}

// Login exchanges credentials for a token, then fetches the profile with
// that token. Both steps must succeed before anything is persisted; a
// failure in either leaves the store untouched and the session anonymous
// with the server-reported message.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if verrs := validateLogin(username, password); len(verrs) > 0 {
		return verrs
	}

	c.mu.Lock()
	c.state = StateVerifying
	c.lastError = ""
	c.mu.Unlock()
	c.notifyChange()

	token, err := c.apiClient.Login(ctx, username, password)
	if err != nil {
		c.fail(err)
		return err
	}

	profile, err := c.apiClient.CurrentUser(ctx, token)
	if err != nil {
		c.fail(err)
		return err
	}

	if err := c.store.Save(ctx, token, profile); err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.token = token
	p := profile
	c.user = &p
	c.state = StateAuthenticated
	c.lastError = ""
	c.mu.Unlock()
	c.notifyChange()

	c.log.Info(ctx, "login successful", "username", profile.Username)
	return nil
}

// Register creates the account and then delegates to Login with the same
// credentials. A registration failure leaves the session anonymous with the
// server-reported error.
func (c *Controller) Register(ctx context.Context, req api.RegisterRequest) error {
	if verrs := validateRegister(req); len(verrs) > 0 {
		return verrs
	}

	c.mu.Lock()
	c.state = StateVerifying
	c.lastError = ""
	c.mu.Unlock()
	c.notifyChange()

	if _, err := c.apiClient.Register(ctx, req); err != nil {
		c.fail(err)
		return err
	}

	return c.Login(ctx, req.Username, req.Password)
}

// Logout clears the store and resets the in-memory session. Navigation back
// to a sign-in surface is the subscriber's business, not the controller's.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)

	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.state = StateAnonymous
	c.lastError = ""
	c.mu.Unlock()
	c.notifyChange()

	return err
}

func validateLogin(username, password string) ValidationErrors {
	var verrs ValidationErrors
	if strings.TrimSpace(username) == "" {
		verrs = append(verrs, ValidationError{Field: "username", Message: "must not be empty"})
	}
	if password == "" {
		verrs = append(verrs, ValidationError{Field: "password", Message: "must not be empty"})
	}
	return verrs
}

func validateRegister(req api.RegisterRequest) ValidationErrors {
	var verrs ValidationErrors
	if strings.TrimSpace(req.Username) == "" {
		verrs = append(verrs, ValidationError{Field: "username", Message: "must not be empty"})
	}
	if !strings.Contains(req.Email, "@") {
		verrs = append(verrs, ValidationError{Field: "email", Message: "must be a valid email address"})
	}
	if len(req.Password) < 6 {
		verrs = append(verrs, ValidationError{Field: "password", Message: "must be at least 6 characters"})
	}
	return verrs
}

// tokenExpiry reads the exp claim of a JWT bearer token without verifying
// its signature. Opaque or claim-less tokens report !ok and are left to the
// server to judge.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
