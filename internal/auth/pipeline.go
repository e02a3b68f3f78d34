package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/api/dto"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/observability"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

const bearerScheme = "Bearer"

// PipelineDependencies bundles the collaborators of the request pipeline.
type PipelineDependencies struct {
	Codec         *TokenCodec
	Validator     *TokenValidator
	Authenticator *CredentialAuthenticator
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Events        events.Dispatcher
}

// Pipeline intercepts every request. Credential submissions to the login path
// are answered directly; every other request has its bearer token, if any,
// turned into a Principal before routing continues.
type Pipeline struct {
	deps      PipelineDependencies
	loginPath string
	now       func() time.Time
}

// NewPipeline builds the pipeline. A nil clock defaults to time.Now.
func NewPipeline(deps PipelineDependencies, loginPath string, now func() time.Time) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Pipeline{deps: deps, loginPath: normalizePath(loginPath), now: now}
}

// Handle is the fiber middleware entry point.
func (p *Pipeline) Handle(c *fiber.Ctx) error {
	if p.isLoginRequest(c) {
		return p.login(c)
	}
	return p.bearer(c)
}

func (p *Pipeline) isLoginRequest(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPost && normalizePath(c.Path()) == p.loginPath
}

func (p *Pipeline) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Username == "" || req.Password == "" {
		return p.rejectLogin(c, req.Username, ErrAuthenticationFailed, "authentication failed: username and password required")
	}

	user, err := p.deps.Authenticator.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			return p.rejectLogin(c, req.Username, err, "authentication failed: bad credentials")
		}
		p.deps.Logger.Error("credential lookup failed", zap.String("username", req.Username), zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	principal, err := NewPrincipal(user.ID, user.Username, user.Roles)
	if err != nil {
		return p.fail(c, "login", err)
	}

	token, expiresAt, err := p.deps.Codec.Issue(principal.ID, principal.Username, principal.Roles(), p.now())
	if err != nil {
		return p.fail(c, "login", err)
	}

	p.deps.Metrics.RecordAuthOutcome("login", failureKind(nil))
	p.deps.Logger.Info("login succeeded",
		zap.Int64("user_id", principal.ID),
		zap.String("username", principal.Username),
		zap.Time("expires_at", expiresAt))
	p.publish(c, events.Event{Type: events.EventLoginSucceeded, Username: principal.Username, UserID: &principal.ID})

	return c.JSON(dto.LoginResponse{Token: token})
}

func (p *Pipeline) bearer(c *fiber.Ctx) error {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return c.Next()
	}

	raw, ok := bearerToken(header)
	if !ok {
		return p.rejectToken(c, ErrTokenMalformed, "invalid authorization header")
	}

	parsed, err := p.deps.Codec.Parse(raw)
	if err != nil {
		return p.rejectToken(c, err, "token malformed")
	}

	if verdict := p.deps.Validator.Verify(parsed, p.now()); verdict != VerdictOK {
		return p.rejectToken(c, verdict.Err(), verdict.Err().Error())
	}

	principal, err := NewPrincipal(parsed.Claims.UserID, parsed.Claims.Subject, parsed.Claims.Roles)
	if err != nil {
		return p.fail(c, "bearer", err)
	}

	p.deps.Metrics.RecordAuthOutcome("bearer", failureKind(nil))
	c.SetUserContext(WithPrincipal(c.UserContext(), principal))
	return c.Next()
}

func (p *Pipeline) rejectLogin(c *fiber.Ctx, username string, cause error, message string) error {
	kind := failureKind(cause)
	p.deps.Metrics.RecordAuthOutcome("login", kind)
	p.deps.Logger.Info("login rejected", zap.String("username", username), zap.String("reason", kind))
	p.publish(c, events.Event{
		Type:     events.EventLoginFailed,
		Username: username,
		Payload:  events.FailurePayload{Reason: kind},
	})
	return apperrors.NewUnauthorized(message, cause)
}

func (p *Pipeline) rejectToken(c *fiber.Ctx, cause error, message string) error {
	kind := failureKind(cause)
	p.deps.Metrics.RecordAuthOutcome("bearer", kind)
	p.deps.Logger.Debug("bearer token rejected", zap.String("path", c.Path()), zap.String("reason", kind), zap.Error(cause))
	p.publish(c, events.Event{Type: events.EventTokenRejected, Payload: events.FailurePayload{Reason: kind}})
	return apperrors.NewUnauthorized(message, cause)
}

// fail handles errors that indicate a bug rather than a bad caller, such as
// role data that already carries the authority prefix.
func (p *Pipeline) fail(c *fiber.Ctx, stage string, err error) error {
	p.deps.Metrics.RecordAuthOutcome(stage, failureKind(err))
	p.deps.Logger.Error("authentication pipeline failure",
		zap.String("stage", stage),
		zap.String("path", c.Path()),
		zap.Error(err))
	return apperrors.NewInternalError(err)
}

func (p *Pipeline) publish(c *fiber.Ctx, event events.Event) {
	if p.deps.Events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Path = c.Path()
	event.Timestamp = p.now()
	if err := p.deps.Events.Publish(context.WithoutCancel(c.UserContext()), event); err != nil {
		p.deps.Logger.Warn("auth event handler failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
