// Package conversation drives an estimate session from problem statement to
// a single lead persistence attempt.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/classifier"
	"estimate_portal_backend/internal/estimate/pricing"
	"estimate_portal_backend/internal/estimate/validation"
	"estimate_portal_backend/platform/apperr"
	"estimate_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultPersistTimeout = 10 * time.Second

// Deps are the collaborators shared by every conversation.
type Deps struct {
	Classifier     *classifier.Classifier
	Gate           *validation.Gate
	Saver          LeadSaver
	Log            *logger.Logger
	PersistTimeout time.Duration
}

// Engine creates conversations over a shared catalog and lead store.
type Engine struct {
	classifier     *classifier.Classifier
	gate           *validation.Gate
	saver          LeadSaver
	log            *logger.Logger
	persistTimeout time.Duration
	now            func() time.Time
	newID          func() string
}

// NewEngine builds an Engine. A nil Saver makes every save attempt fail,
// which leaves completed sessions offering manual contact channels.
func NewEngine(deps Deps) *Engine {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	gate := deps.Gate
	if gate == nil {
		gate = validation.NewGate()
	}
	timeout := deps.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	return &Engine{
		classifier:     deps.Classifier,
		gate:           gate,
		saver:          deps.Saver,
		log:            log,
		persistTimeout: timeout,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Start opens a clean session in mode.
func (e *Engine) Start(mode Mode) *Controller {
	return e.controller(newSession(e.newID(), mode, e.now()))
}

// Resume rebuilds a controller from a stored snapshot.
func (e *Engine) Resume(s Session) (*Controller, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return e.controller(s), nil
}

func (e *Engine) controller(s Session) *Controller {
	return &Controller{engine: e, session: s, policy: PolicyFor(s.Mode)}
}

// Checkpoint receives the completed session, already marked as attempted,
// right before the save call. An error cancels the save and is reported
// like a failed save.
type Checkpoint func(ctx context.Context, s Session) error

// Controller owns one session. Turns are serialized; a turn that completes
// the session holds the lock until the save attempt returns.
type Controller struct {
	engine     *Engine
	policy     SlotPolicy
	mu         sync.Mutex
	session    Session
	checkpoint Checkpoint
}

// SetCheckpoint installs fn for the save attempt of this controller.
func (c *Controller) SetCheckpoint(fn Checkpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpoint = fn
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copySession()
}

// View renders the current session without applying input.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return render(c.copySession(), nil)
}

// turn accumulates the effects of one Handle call.
type turn struct {
	transitions []State
	errs        []validation.FieldError
}

// Handle applies one event. Validation failures are reported in the view
// and leave the session untouched; an event that does not belong to the
// current state returns a BadRequest error.
func (c *Controller) Handle(ctx context.Context, ev Event) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &turn{}
	if err := c.apply(ctx, ev, t); err != nil {
		return Outcome{View: render(c.copySession(), nil)}, err
	}
	return Outcome{View: render(c.copySession(), t.errs), Transitions: t.transitions}, nil
}

func (c *Controller) apply(ctx context.Context, ev Event, t *turn) error {
	if ev.Type == EventRestart {
		c.restart(t)
		return nil
	}

	switch c.session.State {
	case StateCompleted:
		return nil
	case StateDiscarded:
		if ev.Type == EventCancel {
			return nil
		}
		return apperr.Conflict("session was cancelled; restart to begin again").WithOp("conversation.Handle")
	}

	switch ev.Type {
	case EventCancel:
		c.discard(t)
		return nil
	case EventSelectUrgency:
		return c.selectUrgency(ev.Value, t)
	}

	switch c.session.State {
	case StateCollectingProblem:
		switch ev.Type {
		case EventSubmitProblem:
			return c.submitProblem(ev.Value, t)
		case EventSelectProblem:
			return c.selectProblem(ev.Value, t)
		}
	case StateCollectingName:
		if c.policy == AtomicStep && ev.Type == EventSubmitCustomerInfo {
			return c.submitCustomerInfo(ev, t)
		}
		if c.policy == MicroStep && ev.Type == EventSubmitName {
			return c.submitName(ev.Value, t)
		}
	case StateCollectingEmail:
		if c.policy == MicroStep && ev.Type == EventSubmitEmail {
			return c.submitEmail(ev.Value, t)
		}
	case StateCollectingPhone:
		if c.policy == MicroStep && ev.Type == EventSubmitPhone {
			return c.submitPhone(ev.Value, t)
		}
	case StateCollectingContactPreference:
		if ev.Type == EventSubmitContactPreference {
			return c.submitContactPreference(ctx, ev.Value, t)
		}
	}

	return apperr.BadRequest(fmt.Sprintf("unexpected event %q in state %q", ev.Type, c.session.State)).
		WithOp("conversation.Handle")
}

func (c *Controller) enter(s State, t *turn) {
	from := c.session.State
	c.session.State = s
	t.transitions = append(t.transitions, s)
	c.engine.log.EstimateTransition(c.session.ID, string(from), string(s))
}

func (c *Controller) reject(fe *validation.FieldError, t *turn) error {
	t.errs = append(t.errs, *fe)
	return nil
}

func (c *Controller) submitProblem(text string, t *turn) error {
	if fe := c.engine.gate.ProblemText(text); fe != nil {
		return c.reject(fe, t)
	}
	c.identify(strings.TrimSpace(text), c.classify(text), t)
	return nil
}

func (c *Controller) selectProblem(phrase string, t *turn) error {
	res := c.classify(phrase)
	if res.Kind != classifier.MatchExact {
		return c.reject(&validation.FieldError{
			Field:   validation.FieldProblem,
			Message: "Please choose a problem from the list",
		}, t)
	}
	c.identify(res.Phrase, res, t)
	return nil
}

func (c *Controller) classify(text string) classifier.Result {
	if c.engine.classifier == nil {
		return classifier.New(nil).Match(text)
	}
	return c.engine.classifier.Match(text)
}

// identify stores the problem, passes through ServiceIdentified and lands
// on the first contact slot.
func (c *Controller) identify(problem string, res classifier.Result, t *turn) {
	c.session.ProblemText = problem
	c.enter(StateServiceIdentified, t)

	svc := res.Descriptor
	c.session.ClassifiedService = &svc
	c.session.MatchedPhrase = res.Phrase
	c.session.Category = res.Category
	c.session.MatchKind = res.Kind

	c.enter(StateCollectingName, t)
}

func (c *Controller) selectUrgency(level string, t *turn) error {
	u, ok := catalog.ParseUrgency(level)
	if !ok {
		return c.reject(&validation.FieldError{
			Field:   validation.FieldUrgency,
			Message: "Please choose emergency, urgent, normal or scheduled",
		}, t)
	}
	c.session.Urgency = u
	return nil
}

func (c *Controller) submitName(name string, t *turn) error {
	if fe := c.engine.gate.Name(name); fe != nil {
		return c.reject(fe, t)
	}
	c.session.CustomerInfo.Name = strings.TrimSpace(name)
	c.enter(StateCollectingEmail, t)
	return nil
}

func (c *Controller) submitEmail(email string, t *turn) error {
	if fe := c.engine.gate.Email(email); fe != nil {
		return c.reject(fe, t)
	}
	c.session.CustomerInfo.Email = strings.TrimSpace(email)
	c.enter(StateCollectingPhone, t)
	return nil
}

func (c *Controller) submitPhone(phone string, t *turn) error {
	if fe := c.engine.gate.Phone(phone); fe != nil {
		return c.reject(fe, t)
	}
	c.session.CustomerInfo.Phone = strings.TrimSpace(phone)
	c.enter(StateCollectingContactPreference, t)
	return nil
}

// submitCustomerInfo validates all three fields; nothing is written unless
// every field passes.
func (c *Controller) submitCustomerInfo(ev Event, t *turn) error {
	if errs := c.engine.gate.CustomerInfo(ev.Name, ev.Email, ev.Phone); len(errs) > 0 {
		t.errs = append(t.errs, errs...)
		return nil
	}
	c.session.CustomerInfo.Name = strings.TrimSpace(ev.Name)
	c.enter(StateCollectingEmail, t)
	c.session.CustomerInfo.Email = strings.TrimSpace(ev.Email)
	c.enter(StateCollectingPhone, t)
	c.session.CustomerInfo.Phone = strings.TrimSpace(ev.Phone)
	c.enter(StateCollectingContactPreference, t)
	return nil
}

func (c *Controller) submitContactPreference(ctx context.Context, value string, t *turn) error {
	pref, fe := c.engine.gate.ContactPreference(value)
	if fe != nil {
		return c.reject(fe, t)
	}
	c.session.ContactPreference = pref
	c.enter(StateCompleted, t)
	c.finish(ctx)
	return nil
}

// finish prices the session and makes the one save attempt it will ever get.
func (c *Controller) finish(ctx context.Context) {
	s := &c.session
	if s.ClassifiedService == nil {
		fb := catalog.Fallback()
		s.ClassifiedService = &fb
	}

	price, err := pricing.ForService(*s.ClassifiedService, s.Urgency)
	if err != nil {
		c.engine.log.CatalogIssue(s.MatchedPhrase, s.ClassifiedService.ServiceName, err)
	}
	s.FinalPrice = &price

	if s.LeadSaved || s.PersistAttempted {
		return
	}
	s.PersistAttempted = true

	if c.checkpoint != nil {
		if err := c.checkpoint(ctx, c.copySession()); err != nil {
			pe := &PersistError{Err: fmt.Errorf("checkpoint session: %w", err)}
			s.PersistenceError = pe.Error()
			c.engine.log.WithContext(ctx).LeadPersistFailed(s.ID, pe)
			return
		}
	}

	leadID, err := c.save(ctx, c.lead())
	if err != nil {
		s.PersistenceError = err.Error()
		c.engine.log.WithContext(ctx).LeadPersistFailed(s.ID, err)
		return
	}
	s.LeadSaved = true
	s.LeadID = leadID
	c.engine.log.WithContext(ctx).LeadPersisted(s.ID, leadID, s.ClassifiedService.ServiceName)
}

func (c *Controller) lead() Lead {
	s := c.session
	return Lead{
		SessionID:         s.ID,
		SubmissionKey:     s.SubmissionKey(),
		Name:              s.CustomerInfo.Name,
		Email:             s.CustomerInfo.Email,
		Phone:             s.CustomerInfo.Phone,
		Problem:           s.ProblemText,
		Service:           *s.ClassifiedService,
		Urgency:           s.Urgency,
		PriceEstimate:     s.FinalPrice.String(),
		Status:            LeadStatusNew,
		ContactPreference: s.ContactPreference,
		ConsentGiven:      true,
	}
}

// save runs the adapter on a context that outlives the caller's request but
// not the persist timeout. Panics and untyped errors become *PersistError.
func (c *Controller) save(ctx context.Context, lead Lead) (leadID string, err error) {
	if c.engine.saver == nil {
		return "", &PersistError{Err: errors.New("no lead store configured")}
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.engine.persistTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			leadID = ""
			err = &PersistError{Err: fmt.Errorf("lead store panicked: %v", r)}
		}
	}()

	leadID, err = c.engine.saver.Save(saveCtx, lead)
	if err != nil {
		var pe *PersistError
		if !errors.As(err, &pe) {
			err = &PersistError{Err: err}
		}
		return "", err
	}
	return leadID, nil
}

func (c *Controller) discard(t *turn) {
	c.session = Session{
		ID:         c.session.ID,
		Mode:       c.session.Mode,
		State:      c.session.State,
		CreatedAt:  c.session.CreatedAt,
		Generation: c.session.Generation,
		Urgency:    catalog.DefaultUrgency,
	}
	c.enter(StateDiscarded, t)
}

func (c *Controller) restart(t *turn) {
	from := c.session.State
	generation := c.session.Generation + 1
	c.session = newSession(c.session.ID, c.session.Mode, c.engine.now())
	c.session.Generation = generation
	t.transitions = append(t.transitions, StateCollectingProblem)
	c.engine.log.EstimateTransition(c.session.ID, string(from), string(StateCollectingProblem))
}

func (c *Controller) copySession() Session {
	s := c.session
	if s.ClassifiedService != nil {
		svc := *s.ClassifiedService
		mult := make(catalog.Multipliers, len(svc.UrgencyMultiplier))
		for k, v := range svc.UrgencyMultiplier {
			mult[k] = v
		}
		svc.UrgencyMultiplier = mult
		s.ClassifiedService = &svc
	}
	if s.FinalPrice != nil {
		p := *s.FinalPrice
		s.FinalPrice = &p
	}
	return s
}
