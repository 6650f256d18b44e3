package models

import "errors"

// Классы ошибок движка. Конкретные причины оборачивают один из классов,
// поэтому errors.Is работает на обоих уровнях.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrInternal         = errors.New("internal error")
)

// Reason — ошибка с конкретной причиной, принадлежащая одному из классов.
type Reason struct {
	Class error
	Msg   string
}

func (r *Reason) Error() string { return r.Msg }

// Unwrap позволяет сравнивать причину с её классом через errors.Is.
func (r *Reason) Unwrap() error { return r.Class }

var (
	ErrSelfRoleChange  error = &Reason{Class: ErrPermissionDenied, Msg: "cannot modify your own role"}
	ErrSelfDelete      error = &Reason{Class: ErrPermissionDenied, Msg: "cannot delete your own account through the administrative path"}
	ErrWrongPassword   error = &Reason{Class: ErrPermissionDenied, Msg: "password verification failed"}
	ErrAdminRequired   error = &Reason{Class: ErrPermissionDenied, Msg: "administrator role required"}
	ErrTrialRenewal    error = &Reason{Class: ErrInvalidState, Msg: "trial subscriptions cannot be renewed"}
	ErrNoSubscription  error = &Reason{Class: ErrNotFound, Msg: "no subscription"}
	ErrConcurrentWrite error = &Reason{Class: ErrInvalidState, Msg: "profile was modified concurrently, retry"}
	ErrNotPending      error = &Reason{Class: ErrInvalidState, Msg: "purchase is not pending"}
	ErrUnavailable     error = &Reason{Class: ErrInternal, Msg: "storage unavailable, retry"}
)

// ErrEmailTaken возвращается при попытке создать второй профиль с тем же email.
var ErrEmailTaken error = &Reason{Class: ErrInvalidArgument, Msg: "email already registered"}
