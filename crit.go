package jwt

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// reservedHeaderNames are the registered JWS/JWE header parameters.
// None of them may be listed in "crit".
var reservedHeaderNames = []string{
	"alg", "jku", "jwk", "kid", "x5u", "x5c", "x5t", "x5t#S256", "typ", "cty",
	"crit", "enc", "zip", "epk", "apu", "apv", "iv", "tag", "p2s", "p2c",
}

var reservedHeaderSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(reservedHeaderNames))
	for _, name := range reservedHeaderNames {
		set[name] = struct{}{}
	}
	return set
}()

// ReservedHeaderNames returns the header parameter names that must never
// appear inside "crit".
func ReservedHeaderNames() []string {
	names := make([]string, len(reservedHeaderNames))
	copy(names, reservedHeaderNames)
	return names
}

// IsReservedHeaderName reports whether name is a registered header parameter.
func IsReservedHeaderName(name string) bool {
	_, ok := reservedHeaderSet[name]
	return ok
}

type (
	// ExtensionHandler understands one critical header extension.
	//
	// HandleExtension receives the header value of the extension and returns
	// whatever the caller wants to see in ValidResult.CritResults. Returning
	// an error rejects the token. Handlers of the same token run
	// concurrently; ctx is cancelled as soon as one of them fails.
	ExtensionHandler interface {
		HandleExtension(ctx context.Context, value Value) (any, error)
	}

	// ExtensionHandlerFunc is the interface-as-function shortcut for an ExtensionHandler.
	ExtensionHandlerFunc func(ctx context.Context, value Value) (any, error)

	// Handlers maps a critical extension name to its handler.
	Handlers map[string]ExtensionHandler
)

// HandleExtension completes the ExtensionHandler interface.
// It calls itself.
func (fn ExtensionHandlerFunc) HandleExtension(ctx context.Context, value Value) (any, error) {
	return fn(ctx, value)
}

// dispatchCritical resolves the "crit" header against handlers.
//
// Without "crit" it does nothing. Otherwise every listed name must be a
// non-empty, non-reserved string that is present in the header and has a
// handler. All handlers then run concurrently; the results come back in
// "crit" order once every handler has returned. Any failure rejects the
// whole dispatch and no partial results are returned.
func dispatchCritical(ctx context.Context, header Object, handlers Handlers) ([]any, error) {
	raw, ok := header.Get("crit")
	if !ok {
		return nil, nil
	}

	list, ok := raw.AsArray()
	if !ok || len(list) == 0 {
		return nil, newError(KindCritical, "crit must be a non-empty array of strings", nil)
	}

	names := make([]string, len(list))
	for i, item := range list {
		name, ok := item.AsString()
		if !ok || name == "" {
			return nil, newError(KindCritical, "crit must be a non-empty array of strings", nil)
		}

		if IsReservedHeaderName(name) {
			return nil, newError(KindCritical, fmt.Sprintf("crit lists reserved header parameter %q", name), nil)
		}

		names[i] = name
	}

	values := make([]Value, len(names))
	resolved := make([]ExtensionHandler, len(names))
	for i, name := range names {
		value, present := header.Get(name)
		handler, known := handlers[name]
		if !present || !known || handler == nil {
			return nil, newError(KindCritical, fmt.Sprintf("critical extension not understood: %q", name), nil)
		}

		values[i] = value
		resolved[i] = handler
	}

	results := make([]any, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i := range names {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%q: handler panic: %v", names[i], r)
				}
			}()

			res, err := resolved[i].HandleExtension(gctx, values[i])
			if err != nil {
				return fmt.Errorf("%q: %w", names[i], err)
			}

			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, newError(KindCritical, "critical extension rejected: "+err.Error(), err)
	}

	return results, nil
}
