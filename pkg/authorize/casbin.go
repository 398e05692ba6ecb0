package authorize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the only thing middleware should depend on.
type IAuthorization interface {
	// Enforce answers: "may role act on resource?"
	Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden if not allowed.
	MustEnforce(ctx context.Context, role Role, object Resource, action Action) error

	AddPermission(ctx context.Context, p Permission) (bool, error)
	RemovePermission(ctx context.Context, p Permission) (bool, error)
}

// Authorization is a thin typed wrapper around casbin.SyncedEnforcer.
type Authorization struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model (or cfg.ModelPath),
// loads the optional CSV policy file and adds DefaultPolicies on top.
func NewEnforcer(cfg Config) (*casbin.SyncedEnforcer, error) {
	var (
		m   model.Model
		err error
	)
	if cfg.ModelPath != "" {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(defaultModel)
	}
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		e, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	// the CSV file is read-only input
	e.EnableAutoSave(false)

	added := 0
	for _, p := range DefaultPolicies {
		ok, err := e.AddPolicy(string(p.Role), string(p.Resource), string(p.Action))
		if err != nil {
			return nil, fmt.Errorf("add default policy: %w", err)
		}
		if ok {
			added++
		}
	}
	slog.Info("authorize: policies loaded", "defaults_added", added)
	return e, nil
}

// New wraps an enforcer, adding audit logging when enabled.
func New(e *casbin.SyncedEnforcer, cfg Config) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	var a IAuthorization = &Authorization{enforcer: e}
	if cfg.EnableAudit {
		a = NewAuditedAuthorization(a, nil)
	}
	return a, nil
}

func (a *Authorization) Enforce(_ context.Context, role Role, object Resource, action Action) (bool, error) {
	if err := validate(role, object, action); err != nil {
		return false, err
	}
	return a.enforcer.Enforce(string(role), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role Role, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddPermission(_ context.Context, p Permission) (bool, error) {
	if err := validate(p.Role, p.Resource, p.Action); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(p.Role), string(p.Resource), string(p.Action))
}

func (a *Authorization) RemovePermission(_ context.Context, p Permission) (bool, error) {
	return a.enforcer.RemovePolicy(string(p.Role), string(p.Resource), string(p.Action))
}

func validate(role Role, object Resource, action Action) error {
	if _, ok := KnownRoles[role]; !ok {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, role)
	}
	if _, ok := KnownResources[object]; !ok && object != WildcardResource {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok && action != WildcardAction {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}
	return nil
}
