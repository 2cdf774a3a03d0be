// Package wizard implements the document-creation wizard as a finite-state
// machine independent of any rendering layer.
package wizard

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"document-workflow/internal/attachments"
	"document-workflow/internal/catalog"
	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/validation"
	"document-workflow/internal/models"
	"document-workflow/internal/notify"
	resolvepostalcode "document-workflow/internal/workers/address/resolve-postal-code"
	createdocument "document-workflow/internal/workers/document/create-document"
	loadparameters "document-workflow/internal/workers/document/load-parameters"
	resolveentity "document-workflow/internal/workers/entity/resolve-entity"
)

var (
	// ErrStaleResult is returned when a resolver result was superseded by a
	// newer request for the same field, or the session closed meanwhile.
	ErrStaleResult = stderrors.New("stale resolver result discarded")
	// ErrStepBlocked is returned by Next when the current step has errors.
	ErrStepBlocked = stderrors.New("current step has validation errors")
	// ErrCancelConfirmationRequired is returned by Cancel on a non-empty draft.
	ErrCancelConfirmationRequired = stderrors.New("cancel requires confirmation")
	// ErrSubmissionInProgress rejects edits, transitions and a second Submit
	// while a submission is in flight.
	ErrSubmissionInProgress = stderrors.New("submission already in progress")
	// ErrSessionClosed is returned for operations on a terminal session.
	ErrSessionClosed = stderrors.New("wizard session is closed")
)

type EntityResolver interface {
	ValidTaxID(taxID string) bool
	Resolve(ctx context.Context, taxID string) (*resolveentity.Result, error)
	CreateEntity(ctx context.Context, rec *models.EntityRecord) (*resolveentity.Result, error)
	UpdateEntity(ctx context.Context, rec *models.EntityRecord) (*resolveentity.Result, error)
}

type AddressResolver interface {
	ResolveByPostalCode(ctx context.Context, code string) (*resolvepostalcode.Result, error)
}

type ParameterLoader interface {
	Load(ctx context.Context, documentTypeCode, taxID string) (*loadparameters.Schema, error)
}

type Submitter interface {
	Submit(ctx context.Context, payload *models.DocumentPayload) (*createdocument.Submission, error)
}

type CatalogSource interface {
	Get() *catalog.Catalog
}

type Dependencies struct {
	Entities   EntityResolver
	Addresses  AddressResolver
	Parameters ParameterLoader
	Submitter  Submitter
	Catalog    CatalogSource
	Previews   attachments.PreviewStore
	// Optional.
	Thumbnails attachments.ThumbnailRenderer
	Notifier   notify.Notifier
	Logger     logger.Logger
}

type Config struct {
	MaxFiles               int
	DescriptionMaxLength   int
	InternalOrganizationID string
	Icons                  map[attachments.Category]string
	// Notifications kept per session for the client to poll.
	NotificationBacklog int
}

// EntityState is the resolution of one tax id field.
type EntityState struct {
	TaxID         string               `json:"taxId"`
	Status        models.EntityStatus  `json:"status"`
	Record        *models.EntityRecord `json:"record,omitempty"`
	MissingFields []string             `json:"missingFields,omitempty"`
}

// Outcome mirrors the close callback: success, the created id and whether the
// payment sub-flow should follow.
type Outcome struct {
	Success           bool   `json:"success"`
	CreatedID         string `json:"createdId,omitempty"`
	RedirectToPayment bool   `json:"redirectToPayment"`
}

// Session is one open wizard. All methods are safe for concurrent use;
// resolver calls run outside the session lock.
type Session struct {
	mu     sync.Mutex
	id     string
	config Config
	deps   Dependencies
	logger logger.Logger

	// Lifetime context; cancelled on close so late results are dropped.
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	state          State
	draft          *models.DocumentDraft
	savedAssociate string
	entities       map[Field]*EntityState
	candidates     []models.AddressCandidate
	manualAddress  bool
	schema         []models.ResolvedParameter
	schemaFor      string
	files          *attachments.Manager
	tokens         map[Field]uint64
	submitting     bool
	outcome        *Outcome

	notifications []models.Notification
	pending       []models.Notification

	createdAt    time.Time
	lastActivity time.Time
}

// New creates an empty session in the Identification step.
func New(id string, deps Dependencies, config Config) *Session {
	if config.NotificationBacklog <= 0 {
		config.NotificationBacklog = 50
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Session{
		id:     id,
		config: config,
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"sessionId": id}),
		ctx:    ctx,
		cancel: cancel,
		state:  StateIdentification,
		draft:  models.NewDocumentDraft(),
		files: attachments.NewManager(id, attachments.Dependencies{
			Store:    deps.Previews,
			Renderer: deps.Thumbnails,
			Logger:   deps.Logger,
		}, attachments.Config{
			MaxFiles:             config.MaxFiles,
			DescriptionMaxLength: config.DescriptionMaxLength,
			Icons:                config.Icons,
		}),
		entities:     make(map[Field]*EntityState),
		tokens:       make(map[Field]uint64),
		createdAt:    now,
		lastActivity: now,
	}
}

// Open pre-fills and resolves an initial tax id. Resolution failures are
// reported as notifications; the session stays open.
func (s *Session) Open(ctx context.Context, initialTaxID string) error {
	if initialTaxID == "" {
		return nil
	}
	if err := s.Update(ctx, Patch{TaxID: &initialTaxID}); err != nil {
		return err
	}
	if _, err := s.ResolveTaxID(ctx); err != nil && !errors.HasCode(err, errors.ErrCodeTaxIDInvalid) {
		return err
	}
	return nil
}

func (s *Session) ID() string { return s.id }

// Info returns the session's bookkeeping data.
func (s *Session) Info() models.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionInfo{ID: s.id, State: string(s.state), CreatedAt: s.createdAt, LastActivity: s.lastActivity}
}

// Cancel abandons the wizard. A non-empty draft needs confirmed=true.
func (s *Session) Cancel(ctx context.Context, confirmed bool) (*Outcome, error) {
	defer s.flush(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return nil, ErrSessionClosed
	}
	if s.submitting {
		return nil, ErrSubmissionInProgress
	}
	if !confirmed && (!s.draft.IsEmpty() || s.files.Len() > 0) {
		return nil, ErrCancelConfirmationRequired
	}
	s.transition("cancel", StateCancelled)
	s.outcome = &Outcome{Success: false}
	s.shutdown(ctx)
	return s.outcome, nil
}

// Close stops in-flight resolutions and releases previews. An open wizard
// ends Cancelled. Close is idempotent.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		s.transition("close", StateCancelled)
		s.outcome = &Outcome{Success: false}
	}
	s.shutdown(ctx)
}

func (s *Session) shutdown(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.files.Close(ctx)
}

// callContext derives a context for a resolver call that is also cancelled
// when the session closes.
func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (s *Session) bump(field Field) uint64 {
	s.tokens[field]++
	return s.tokens[field]
}

// isCurrent must be called with the lock held.
func (s *Session) isCurrent(field Field, token uint64) bool {
	return !s.closed && !s.submitting && s.tokens[field] == token
}

func (s *Session) touch() {
	s.lastActivity = time.Now()
}

// guard rejects mutations of a closed session or one whose draft is being
// submitted. Must be called with the lock held.
func (s *Session) guard() error {
	if s.state.Terminal() || s.closed {
		return ErrSessionClosed
	}
	if s.submitting {
		return ErrSubmissionInProgress
	}
	s.touch()
	return nil
}

// Validate runs the validator of one step against the current state.
func (s *Session) Validate(step State) *validation.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate(step)
}
