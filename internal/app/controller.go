// Package app drives the screen flow of the student-ID client: which screen is
// visible, what the back stack holds, and how CPF submission, registration and
// logout move between them. It holds no rendering concerns; callers observe
// Screen() and Current() and draw whatever they like.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"carteirinha/internal/session"
	"carteirinha/internal/student/models"
	"carteirinha/internal/student/service"
	"carteirinha/pkg/domain"
	pkgerrors "carteirinha/pkg/errors"
	"carteirinha/pkg/platform/sentinel"
)

// Screen identifies one of the client screens.
type Screen string

const (
	ScreenSplash       Screen = "splash"
	ScreenAuthenticate Screen = "authenticate"
	ScreenRegister     Screen = "register"
	ScreenCard         Screen = "card"
	ScreenValidation   Screen = "validation"
	ScreenCertificate  Screen = "certificate"
	ScreenProfile      Screen = "profile"
)

// SplashDuration is how long the splash screen stays up before the
// authentication screen takes over.
const SplashDuration = 3 * time.Second

// Controller is the screen state machine. All methods are safe for concurrent
// use; a single busy flag serializes the in-flight submit so double taps do
// not fire duplicate requests.
type Controller struct {
	students *service.Service
	sessions session.Store
	logger   *slog.Logger

	mu         sync.Mutex
	busy       bool
	screen     Screen
	history    []Screen
	current    *models.Student
	pendingCPF domain.CPF
}

// NewController wires the controller. The session store may be any of the
// cache backends; the controller never writes anything to it the gateway did
// not return.
func NewController(students *service.Service, sessions session.Store, logger *slog.Logger) *Controller {
	return &Controller{
		students: students,
		sessions: sessions,
		logger:   logger,
		screen:   ScreenSplash,
	}
}

// Start restores a cached session. A cache hit skips straight to the card; a
// miss (or an unreadable cache) lands on the splash screen.
func (c *Controller) Start(ctx context.Context) {
	st, err := c.sessions.Load(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "session restore failed", "error", err.Error())
		}
		c.screen = ScreenSplash
		return
	}
	c.current = &st
	c.screen = ScreenCard
	c.history = nil
}

// SplashElapsed moves past the splash once its timer fires. It is a no-op on
// any other screen, so a session restore racing the timer wins.
func (c *Controller) SplashElapsed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen == ScreenSplash {
		c.screen = ScreenAuthenticate
	}
}

// SubmitCPF resolves the typed CPF. A fully masked CPF is required before
// anything is sent; a known CPF signs in and caches the session, an unknown
// one routes to registration with the CPF carried along.
func (c *Controller) SubmitCPF(ctx context.Context, typed string) error {
	if len(typed) != domain.CanonicalCPFLength {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "cpf is incomplete")
	}
	if !c.acquire() {
		return pkgerrors.New(pkgerrors.CodeConflict, "a submission is already in flight")
	}
	defer c.release()

	st, err := c.students.Lookup(ctx, typed)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			cpf, perr := domain.ParseCPF(typed)
			if perr != nil {
				return perr
			}
			c.mu.Lock()
			c.pendingCPF = cpf
			c.push(ScreenRegister)
			c.mu.Unlock()
			return nil
		}
		return err
	}

	if err := c.sessions.Save(ctx, st); err != nil {
		c.logger.WarnContext(ctx, "session cache write failed", "error", err.Error())
	}
	c.mu.Lock()
	c.current = &st
	c.screen = ScreenCard
	c.history = nil
	c.mu.Unlock()
	return nil
}

// RegistrationForm is what the registration screen collects. The CPF is not
// here: a first registration uses the CPF carried over from authentication,
// and a profile edit keeps the signed-in record's CPF.
type RegistrationForm struct {
	Name      string
	RG        string
	BirthDate string
	Course    string
	PhotoURL  string
}

// SubmitRegistration creates the record on first use or patches the signed-in
// one when the screen was reached through the profile. Either way the result
// becomes the session and the card is shown.
func (c *Controller) SubmitRegistration(ctx context.Context, form RegistrationForm) error {
	if !c.acquire() {
		return pkgerrors.New(pkgerrors.CodeConflict, "a submission is already in flight")
	}
	defer c.release()

	c.mu.Lock()
	editing := c.current != nil
	var cpf domain.CPF
	if editing {
		cpf = c.current.CPF
	} else {
		cpf = c.pendingCPF
	}
	c.mu.Unlock()

	if cpf.IsZero() {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "no cpf to register")
	}

	var st models.Student
	var err error
	if editing {
		st, err = c.students.UpdateProfile(ctx, cpf.String(), patchFromForm(form))
	} else {
		st, err = c.students.Register(ctx, service.RegisterInput{
			CPF:       cpf.String(),
			Name:      form.Name,
			RG:        form.RG,
			BirthDate: form.BirthDate,
			Course:    form.Course,
			PhotoURL:  form.PhotoURL,
		})
	}
	if err != nil {
		return err
	}

	if err := c.sessions.Save(ctx, st); err != nil {
		c.logger.WarnContext(ctx, "session cache write failed", "error", err.Error())
	}
	c.mu.Lock()
	c.current = &st
	c.pendingCPF = ""
	c.screen = ScreenCard
	c.history = nil
	c.mu.Unlock()
	return nil
}

// NavigateTo opens one of the signed-in screens, pushing the current one onto
// the back stack. It refuses to leave the unauthenticated flow.
func (c *Controller) NavigateTo(target Screen) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "not signed in")
	}
	switch target {
	case ScreenCard, ScreenValidation, ScreenCertificate, ScreenProfile:
	default:
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "screen is not reachable by navigation")
	}
	if target == c.screen {
		return nil
	}
	c.push(target)
	return nil
}

// EditProfile opens the registration screen prefilled with the signed-in
// record, reachable only from the profile screen.
func (c *Controller) EditProfile() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.screen != ScreenProfile {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "profile edit starts from the profile screen")
	}
	c.push(ScreenRegister)
	return nil
}

// Back pops the back stack. On an empty stack it is a no-op.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return
	}
	c.screen = c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
}

// Logout clears the cached session and returns to the splash screen. The
// record itself is untouched.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not clear the session", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.pendingCPF = ""
	c.screen = ScreenSplash
	c.history = nil
	return nil
}

// Screen reports the visible screen.
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Current returns the signed-in record, if any.
func (c *Controller) Current() (models.Student, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return models.Student{}, false
	}
	return *c.current, true
}

// PendingCPF returns the CPF carried from authentication into a first
// registration.
func (c *Controller) PendingCPF() (domain.CPF, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingCPF, !c.pendingCPF.IsZero()
}

func (c *Controller) push(target Screen) {
	c.history = append(c.history, c.screen)
	c.screen = target
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func patchFromForm(form RegistrationForm) models.StudentPatch {
	var p models.StudentPatch
	if form.Name != "" {
		p.Name = &form.Name
	}
	if form.RG != "" {
		p.RG = &form.RG
	}
	if form.BirthDate != "" {
		p.BirthDate = &form.BirthDate
	}
	if form.Course != "" {
		p.Course = &form.Course
	}
	if form.PhotoURL != "" {
		p.PhotoURL = &form.PhotoURL
	}
	return p
}
