package middleware

import (
	"errors"
	"net/http"

	goOIDC "github.com/MrEthical07/goOIDC"
)

// flowIDQueryParam carries the flow ID through the redirect round trip when
// the caller did not supply a resolver.
const flowIDQueryParam = "flow"

// FlowResolver maps an incoming callback request to the flow it belongs to.
type FlowResolver func(r *http.Request) (flowID string, ok bool)

// Completion receives the outcome of a resolved flow. tokens is nil when
// err is non-nil.
type Completion func(w http.ResponseWriter, r *http.Request, tokens *goOIDC.TokenSet, err error)

// CallbackHandler terminates the provider redirect for code flows: it
// resolves the flow ID, passes the full return URL to the engine, and calls
// done with the result. With a nil resolver the flow ID is read from the
// "flow" query parameter. With a nil done, failures map to 4xx/5xx and
// success to a plain 200.
func CallbackHandler(engine *goOIDC.Engine, resolve FlowResolver, done Completion) http.Handler {
	if resolve == nil {
		resolve = func(r *http.Request) (string, bool) {
			id := r.URL.Query().Get(flowIDQueryParam)
			return id, id != ""
		}
	}
	if done == nil {
		done = defaultCompletion
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flowID, ok := resolve(r)
		if !ok {
			done(w, r, nil, goOIDC.ErrFlowNotFound)
			return
		}

		tokens, err := engine.ResolveRedirect(r.Context(), flowID, r.URL.String())
		done(w, r, tokens, err)
	})
}

// DeliverHandler accepts an authorization response relayed from another
// browsing context and delivers it to the flow blocked in AwaitCallback.
// Parameters are read from the form body or query string.
func DeliverHandler(engine *goOIDC.Engine, resolve FlowResolver) http.Handler {
	if resolve == nil {
		resolve = func(r *http.Request) (string, bool) {
			id := r.FormValue(flowIDQueryParam)
			return id, id != ""
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flowID, ok := resolve(r)
		if !ok {
			http.Error(w, "unknown flow", http.StatusNotFound)
			return
		}

		result := goOIDC.CallbackResult{
			Code:           r.FormValue("code"),
			State:          r.FormValue("state"),
			IDToken:        r.FormValue("id_token"),
			Err:            r.FormValue("error"),
			ErrDescription: r.FormValue("error_description"),
		}

		if err := engine.Deliver(flowID, result); err != nil {
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func defaultCompletion(w http.ResponseWriter, _ *http.Request, _ *goOIDC.TokenSet, err error) {
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login complete"))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, goOIDC.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, goOIDC.ErrFlowCompleted), errors.Is(err, goOIDC.ErrFlowCanceled):
		return http.StatusConflict
	case errors.Is(err, goOIDC.ErrStateMismatch), errors.Is(err, goOIDC.ErrTokenValidation):
		return http.StatusBadRequest
	case errors.Is(err, goOIDC.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, goOIDC.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
