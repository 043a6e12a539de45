// Package service holds the curation rules of the rut server: ordered
// collections, cached counters, tag associations and stars.
//
// Services compose store.Repo primitives. Every multi-step change runs in a
// single store.Store.WithTx call, so a failed step leaves no counter ahead of
// the rows it summarizes.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/store"
)

var tracer = otel.Tracer("rut-server/service")

// clock is swapped in tests.
var clock = func() time.Time { return time.Now().UTC() }

// startSpan opens a service span tagged with the acting user.
func startSpan(ctx context.Context, name, uname string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if uname != "" {
		attrs = append(attrs, attribute.String("rut.uname", uname))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// storeErr translates a store failure into a domain error. what names the
// entity for NotFound and AlreadyExists messages. Domain errors pass through.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}

	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(what + " not found").WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists").WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		var se *store.Error
		if errors.As(err, &se) {
			return domainerrors.Validation(se.Message).WithCause(err)
		}
		return domainerrors.Validation("invalid input").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "store error")
	}
}

// requireOwner fails with Unauthorized unless uname owns the resource.
func requireOwner(owner, uname, what string) error {
	if owner != uname {
		return domainerrors.Unauthorizedf("only the owner may modify this %s", what)
	}
	return nil
}
