package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/actiongate/actiongate/internal/domain/entitlement"
	"github.com/actiongate/actiongate/internal/domain/entity"
	"github.com/actiongate/actiongate/internal/domain/identity"
	"github.com/actiongate/actiongate/internal/domain/policy"
	"github.com/actiongate/actiongate/internal/domain/webaction"
	"github.com/actiongate/actiongate/internal/port/outbound"
)

// Credentials are the optional caller credentials extracted from Basic auth.
type Credentials struct {
	// UUID is the public half of the presented auth key.
	UUID string
	// Secret is the raw secret half.
	Secret string
}

// InvocationRequest is one decoded web action request.
type InvocationRequest struct {
	// Namespace, Package, Action address the entity. Package is empty
	// for the default package.
	Namespace string
	Package   string
	Action    string

	// Ctx is the decoded request context.
	Ctx *webaction.Context

	// Credentials are the caller credentials, or nil for anonymous.
	Credentials *Credentials

	// SecretHeader is the value of the auth-secret request header, used
	// when the action demands a matching secret.
	SecretHeader string
}

// WebActionService runs the invocation pipeline: authenticate, look up
// entities, gate on export and auth, admit, throttle, merge parameters,
// invoke, transcode. Failures surface as *webaction.Reject.
type WebActionService struct {
	entities  entity.EntityStore
	auth      identity.AuthStore
	throttler entitlement.Throttler
	policy    policy.Engine
	invoker   outbound.Invoker
	logger    *slog.Logger

	directives      webaction.Directives
	maxBlockingWait time.Duration
	defaultRate     int
}

// WebActionOption configures WebActionService.
type WebActionOption func(*WebActionService)

// WithDirectives overrides the web API directive set.
func WithDirectives(d webaction.Directives) WebActionOption {
	return func(s *WebActionService) {
		s.directives = d
	}
}

// WithMaxBlockingWait bounds the blocking invocation wait.
func WithMaxBlockingWait(d time.Duration) WebActionOption {
	return func(s *WebActionService) {
		s.maxBlockingWait = d
	}
}

// WithDefaultRate sets the activations-per-minute limit applied to
// identities without an explicit quota.
func WithDefaultRate(rate int) WebActionOption {
	return func(s *WebActionService) {
		s.defaultRate = rate
	}
}

// WithAdmissionEngine installs an admission policy engine. Without one,
// all invocations are admitted.
func WithAdmissionEngine(e policy.Engine) WebActionOption {
	return func(s *WebActionService) {
		s.policy = e
	}
}

// NewWebActionService wires the pipeline dependencies.
func NewWebActionService(
	entities entity.EntityStore,
	auth identity.AuthStore,
	throttler entitlement.Throttler,
	invoker outbound.Invoker,
	logger *slog.Logger,
	opts ...WebActionOption,
) *WebActionService {
	s := &WebActionService{
		entities:        entities,
		auth:            auth,
		throttler:       throttler,
		invoker:         invoker,
		logger:          logger,
		directives:      webaction.MainDirectives,
		maxBlockingWait: 60 * time.Second,
		defaultRate:     120,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Directives returns the directive set the service runs with.
func (s *WebActionService) Directives() webaction.Directives {
	return s.directives
}

// Handle runs the full pipeline for one request. Any failure returns a
// *webaction.Reject; other errors are internal faults.
func (s *WebActionService) Handle(ctx context.Context, req *InvocationRequest) (*webaction.Response, error) {
	if !validNames(req) {
		return nil, webaction.RejectNotFound()
	}

	owner, pkg, act, caller, err := s.lookup(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := gate(act, caller != nil, req.SecretHeader); err != nil {
		return nil, err
	}

	if err := s.admit(ctx, req, caller); err != nil {
		return nil, err
	}

	if err := s.throttle(ctx, owner); err != nil {
		return nil, err
	}

	payload, err := s.merge(req, pkg, act, caller)
	if err != nil {
		return nil, err
	}

	return s.invoke(ctx, req, payload)
}

// validNames checks every URL segment against the entity-name grammar.
func validNames(req *InvocationRequest) bool {
	if !entity.ValidName(req.Namespace) || !entity.ValidName(req.Action) {
		return false
	}
	if req.Package != "" && !entity.ValidName(req.Package) {
		return false
	}
	return true
}

// lookup resolves the owner identity, package, action, and caller
// identity. The owner and caller lookups run concurrently with the entity
// lookups; every store failure collapses to 404 so missing and forbidden
// are indistinguishable.
func (s *WebActionService) lookup(ctx context.Context, req *InvocationRequest) (*identity.Identity, *entity.Package, *entity.Action, *identity.Identity, error) {
	var (
		wg sync.WaitGroup

		owner    *identity.Identity
		ownerErr error

		caller    *identity.Identity
		callerErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		owner, ownerErr = s.auth.GetIdentityByNamespace(ctx, req.Namespace)
	}()

	if req.Credentials != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caller, callerErr = s.authenticate(ctx, req.Credentials)
		}()
	}

	var pkg *entity.Package
	if req.Package != "" {
		p, err := s.entities.GetPackage(ctx, req.Namespace, req.Package)
		if err != nil {
			wg.Wait()
			return nil, nil, nil, nil, s.rejectLookup(err)
		}
		if p.IsBinding {
			wg.Wait()
			return nil, nil, nil, nil, webaction.RejectNotFound()
		}
		pkg = p
	}

	act, err := s.entities.GetAction(ctx, req.Namespace, req.Package, req.Action)
	if err != nil {
		wg.Wait()
		return nil, nil, nil, nil, s.rejectLookup(err)
	}

	wg.Wait()

	if ownerErr != nil {
		return nil, nil, nil, nil, s.rejectLookup(ownerErr)
	}
	if callerErr != nil {
		return nil, nil, nil, nil, callerErr
	}

	return owner, pkg, act, caller, nil
}

// authenticate verifies presented credentials against the auth store.
// Bad credentials are a 401; the caller knows it sent some.
func (s *WebActionService) authenticate(ctx context.Context, creds *Credentials) (*identity.Identity, error) {
	id, err := s.auth.GetIdentityByUUID(ctx, creds.UUID)
	if errors.Is(err, identity.ErrIdentityNotFound) {
		return nil, webaction.NewReject(401, webaction.MsgAuthRequired)
	}
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	ok, err := identity.VerifySecret(creds.Secret, id.Key.Secret)
	if err != nil || !ok {
		return nil, webaction.NewReject(401, webaction.MsgAuthRequired)
	}
	return id, nil
}

// gate applies the export and auth rules: unexported actions are
// indistinguishable from missing ones, and authenticated-only actions
// demand either platform credentials or a matching secret header.
func gate(act *entity.Action, authenticated bool, secretHeader string) error {
	if !act.Annotations.WebExported() {
		return webaction.RejectNotFound()
	}

	required, ok := act.Annotations.RequireAuth()
	if !ok {
		return nil
	}

	switch want := required.(type) {
	case bool:
		if authenticated {
			return nil
		}
	case string:
		if secretMatches(want, secretHeader) {
			return nil
		}
	case float64:
		if secretMatches(fmt.Sprintf("%v", want), secretHeader) {
			return nil
		}
	}
	return webaction.NewReject(401, webaction.MsgAuthRequired)
}

func secretMatches(want, got string) bool {
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// admit consults the admission engine. A deny responds 404 so denied and
// missing actions look the same from outside.
func (s *WebActionService) admit(ctx context.Context, req *InvocationRequest, caller *identity.Identity) error {
	if s.policy == nil {
		return nil
	}

	pkg := req.Package
	if pkg == "" {
		pkg = entity.DefaultPackage
	}
	evalCtx := policy.EvaluationContext{
		Namespace:     req.Namespace,
		Package:       pkg,
		Action:        req.Action,
		Method:        strings.ToLower(req.Ctx.Method),
		Extension:     req.Ctx.Extension.Extension,
		Authenticated: caller != nil,
		Query:         firstValues(req.Ctx.Query),
		RequestTime:   time.Now().UTC(),
	}
	if caller != nil {
		evalCtx.Subject = caller.Subject
	}

	decision, err := s.policy.Evaluate(ctx, evalCtx)
	if err != nil {
		return fmt.Errorf("admission evaluation: %w", err)
	}
	if !decision.Allowed {
		s.logger.Info("invocation denied by admission rule",
			"action", evalCtx.QualifiedAction(),
			"rule", decision.RuleName)
		return webaction.RejectNotFound()
	}
	return nil
}

// throttle enforces the owner identity's activation rate.
func (s *WebActionService) throttle(ctx context.Context, owner *identity.Identity) error {
	rate := owner.Limits.ActivationsPerMinute
	if rate <= 0 {
		rate = s.defaultRate
	}

	decision, err := s.throttler.Allow(ctx, entitlement.FormatKey(owner.Namespace), entitlement.PerMinute(rate))
	if err != nil {
		return fmt.Errorf("throttle check: %w", err)
	}
	if !decision.Allowed {
		return webaction.NewReject(429, webaction.MsgThrottled)
	}
	return nil
}

// merge applies the immutability veto and builds the invocation payload.
func (s *WebActionService) merge(req *InvocationRequest, pkg *entity.Package, act *entity.Action, caller *identity.Identity) (map[string]any, error) {
	raw := act.Annotations.RawHTTP()

	if !raw {
		if offenders := webaction.Offenders(req.Ctx, act.Immutable, s.directives); len(offenders) > 0 {
			return nil, webaction.NewReject(400, webaction.MsgParametersNotAllowed)
		}
	}

	req.Ctx.Namespace = req.Namespace
	if caller != nil {
		req.Ctx.OnBehalfOf = caller.Subject
	}

	var pkgParams map[string]any
	if pkg != nil {
		pkgParams = pkg.Parameters
	}
	return webaction.MergePayload(pkgParams, act.Parameters, req.Ctx, s.directives, raw), nil
}

// invoke runs the blocking invocation with the configured wait bound and
// transcodes the activation result.
func (s *WebActionService) invoke(ctx context.Context, req *InvocationRequest, payload map[string]any) (*webaction.Response, error) {
	invokeCtx, cancel := context.WithTimeout(ctx, s.maxBlockingWait)
	defer cancel()

	act, err := s.invoker.Invoke(invokeCtx, outbound.InvokeRequest{
		Namespace: req.Namespace,
		Package:   req.Package,
		Action:    req.Action,
		Payload:   payload,
	})
	var timeout *outbound.TimeoutError
	switch {
	case errors.As(err, &timeout):
		return nil, webaction.RejectNotReady(timeout.ActivationID)
	case errors.Is(err, outbound.ErrBlockingTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return nil, webaction.RejectNotReady("")
	case err != nil:
		return nil, fmt.Errorf("invoke action: %w", err)
	}

	s.logger.Debug("action invoked",
		"activation_id", act.ID,
		"status", act.Status.String(),
		"duration", act.End.Sub(act.Start))

	return webaction.Transcode(act.Result, act.Status, req.Ctx.Extension, req.Ctx.Path, s.directives)
}

// rejectLookup collapses any store failure into 404 so callers cannot
// probe existence. Unexpected failures still get logged.
func (s *WebActionService) rejectLookup(err error) error {
	if !errors.Is(err, entity.ErrNotFound) && !errors.Is(err, identity.ErrIdentityNotFound) {
		s.logger.Warn("store lookup failed", "error", err)
	}
	return webaction.RejectNotFound()
}

func firstValues(q map[string][]string) map[string]string {
	m := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			m[k] = vs[0]
		}
	}
	return m
}
