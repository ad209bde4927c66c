package test

import (
	"context"
	"net/http"
	"testing"

	goOIDC "github.com/MrEthical07/goOIDC"
	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/middleware"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goOIDC.New

	var _ *goOIDC.Engine
	var _ goOIDC.Config
	var _ goOIDC.StartOptions
	var _ goOIDC.StartResult
	var _ goOIDC.CallbackResult
	var _ goOIDC.TokenSet
	var _ goOIDC.AuditSink
	var _ goOIDC.MetricsSnapshot
	var _ endpoint.Metadata

	var _ error = goOIDC.ErrConfiguration
	var _ error = goOIDC.ErrFlowNotFound
	var _ error = goOIDC.ErrFlowCompleted
	var _ error = goOIDC.ErrFlowCanceled
	var _ error = goOIDC.ErrStateMismatch
	var _ error = goOIDC.ErrCallbackTimeout
	var _ error = goOIDC.ErrTokenValidation
	var _ error = goOIDC.ErrExchangeFailed
	var _ error = goOIDC.ErrReauthRequired
	var _ error = goOIDC.ErrAccessDenied
	var _ error = goOIDC.ErrSessionExpired
	var _ error = goOIDC.ErrPollingExhausted
	var _ error = goOIDC.ErrFeatureUnavailable
	var _ error = goOIDC.ErrProviderUnavailable

	var _ func(*goOIDC.Engine, middleware.FlowResolver, middleware.Completion) http.Handler = middleware.CallbackHandler
	var _ func(*goOIDC.Engine, middleware.FlowResolver) http.Handler = middleware.DeliverHandler

	var _ func(*goOIDC.Engine, context.Context, goOIDC.GrantType, goOIDC.StartOptions) (*goOIDC.StartResult, error) = (*goOIDC.Engine).Start
	var _ func(*goOIDC.Engine, context.Context, string, string) (*goOIDC.TokenSet, error) = (*goOIDC.Engine).ResolveRedirect
	var _ func(*goOIDC.Engine, context.Context, string) (*goOIDC.TokenSet, error) = (*goOIDC.Engine).AwaitCallback
	var _ func(*goOIDC.Engine, context.Context, string) (*goOIDC.TokenSet, error) = (*goOIDC.Engine).WaitForApproval
	var _ func(*goOIDC.Engine, context.Context, *goOIDC.TokenSet) (*goOIDC.TokenSet, error) = (*goOIDC.Engine).Refresh
	var _ func(*goOIDC.Engine, context.Context, string, string) (*endpoint.Introspection, error) = (*goOIDC.Engine).Introspect
	var _ func(*goOIDC.Engine, context.Context, string, string) error = (*goOIDC.Engine).Revoke
	var _ func(*goOIDC.Engine, context.Context, string) error = (*goOIDC.Engine).Cancel
	var _ func(*goOIDC.Engine, string) (goOIDC.FlowStatus, error) = (*goOIDC.Engine).FlowStatus
}
