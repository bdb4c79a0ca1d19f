package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ecotrace/internal/oauth/authenticator"
	"ecotrace/internal/oauth/handler/mocks"
	"ecotrace/internal/oauth/models"
	"ecotrace/internal/oauth/service"
	dErrors "ecotrace/pkg/domain-errors"
	"ecotrace/pkg/testutil"
)

func newRouter(svc Service) *chi.Mux {
	router := chi.NewRouter()
	New(svc, nil).Register(router)
	return router
}

func TestAuthorizeDecodesQueryPerMount(t *testing.T) {
	t.Run("oidc mount forwards scope and nonce", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Authorize(gomock.Any(), service.AuthorizeRequest{
				UserID:       "user1",
				ResponseType: "code",
				ClientID:     "app1",
				RedirectURI:  "https://app1/cb",
				Scope:        "openid email",
				Nonce:        "n0nce",
				OpenID:       true,
			}).
			Return(&service.AuthorizeResult{
				TransactionID: "tr4ns4ct",
				RedirectURI:   "https://app1/cb",
				ClientName:    "App One",
				ClientLogoURL: "https://app1/logo.png",
				UserName:      "Jo",
			}, nil)

		req := testutil.NewRequest(t, http.MethodGet,
			"/oidc/authorize?response_type=code&client_id=app1&redirect_uri=https%3A%2F%2Fapp1%2Fcb&scope=openid+email&nonce=n0nce")
		rec := testutil.DoRequest(newRouter(svc), testutil.WithUserID(req, "user1"))

		testutil.AssertStatus(t, rec, http.StatusOK)
		body := *testutil.UnmarshalResponse[map[string]any](t, rec)
		assert.Equal(t, "tr4ns4ct", body["transactionID"])
		assert.Equal(t, "https://app1/cb", body["redirectURI"])
		assert.Equal(t, map[string]any{"name": "App One", "logoUrl": "https://app1/logo.png"}, body["client"])
		assert.Equal(t, map[string]any{"name": "Jo"}, body["user"])
	})

	t.Run("oauth2 mount drops the scope parameter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Authorize(gomock.Any(), service.AuthorizeRequest{
				UserID:       "user1",
				ResponseType: "code",
				ClientID:     "app1",
				RedirectURI:  "https://app1/cb",
			}).
			Return(&service.AuthorizeResult{
				TransactionID: "tr4ns4ct",
				RedirectURI:   "https://app1/cb",
				ClientName:    "App One",
				UserName:      "Jo",
			}, nil)

		req := testutil.NewRequest(t, http.MethodGet,
			"/oauth2/authorize?response_type=code&client_id=app1&redirect_uri=https%3A%2F%2Fapp1%2Fcb&scope=email")
		rec := testutil.DoRequest(newRouter(svc), testutil.WithUserID(req, "user1"))

		testutil.AssertStatus(t, rec, http.StatusOK)
	})
}

func TestAuthorizeMissingSessionEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Authorize(gomock.Any(), gomock.Any()).Return(nil, models.ErrUnauthenticatedUser())

	req := testutil.NewRequest(t, http.MethodGet, "/oauth2/authorize?response_type=code")
	rec := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	errResp := testutil.UnmarshalErrorResponse(t, rec)
	assert.Equal(t, "Not Authorized", errResp["error"])
	assert.NotContains(t, errResp, "error_description")
}

func TestAuthorizeUnauthorizedClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Authorize(gomock.Any(), gomock.Any()).Return(nil, models.ErrInvalidClientID())

	req := testutil.NewRequest(t, http.MethodGet, "/oauth2/authorize?response_type=code&client_id=ghost")
	rec := testutil.DoRequest(newRouter(svc), testutil.WithUserID(req, "user1"))

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	errResp := testutil.UnmarshalErrorResponse(t, rec)
	assert.Equal(t, "unauthorized_client", errResp["error"])
	assert.Equal(t, "Invalid client id", errResp["error_description"])
}

func TestDecisionApproveRedirectsWithCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Decision(gomock.Any(), service.DecisionRequest{
			UserID:        "user1",
			TransactionID: "tr4ns4ct",
			Nonce:         "wsd123",
			OpenID:        true,
		}).
		Return(&service.DecisionResult{RedirectURI: "https://app1/cb", Code: "c0de"}, nil)

	req := testutil.NewFormRequest(t, http.MethodPost, "/oidc/authorize/decision?nonce=wsd123", url.Values{
		"transaction_id": {"tr4ns4ct"},
		"allow":          {"Allow"},
	})
	rec := testutil.DoRequest(newRouter(svc), testutil.WithSession(req, "user1", "sess1"))

	testutil.AssertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "https://app1/cb?code=c0de", rec.Header().Get("Location"))
}

func TestDecisionCancelRedirectsWithAccessDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Decision(gomock.Any(), service.DecisionRequest{
			UserID:        "user1",
			TransactionID: "tr4ns4ct",
			Cancelled:     true,
		}).
		Return(&service.DecisionResult{RedirectURI: "https://app1/cb", Denied: true}, nil)

	req := testutil.NewFormRequest(t, http.MethodPost, "/oauth2/authorize/decision", url.Values{
		"transaction_id": {"tr4ns4ct"},
		"cancel":         {"Cancel"},
	})
	rec := testutil.DoRequest(newRouter(svc), testutil.WithUserID(req, "user1"))

	testutil.AssertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "https://app1/cb?error=access_denied", rec.Header().Get("Location"))
}

func TestDecisionInvalidScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Decision(gomock.Any(), gomock.Any()).Return(nil, models.ErrInvalidScope("bogus"))

	req := testutil.NewFormRequest(t, http.MethodPost, "/oidc/authorize/decision", url.Values{
		"transaction_id": {"tr4ns4ct"},
	})
	rec := testutil.DoRequest(newRouter(svc), testutil.WithUserID(req, "user1"))

	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "invalid_scope")
}

func TestTokenDecodesFormAndBasicAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Token(gomock.Any(), service.TokenRequest{
			Credentials: authenticator.Credentials{ID: "app1", Secret: "s3cret"},
			GrantType:   "authorization_code",
			Code:        "c0de",
			RedirectURI: "https://app1/cb",
		}).
		Return(&service.TokenResult{
			AccessToken: "t0ken",
			TokenType:   "Bearer",
			UserEmail:   "jo@example.test",
			UserName:    "Jo",
		}, nil)

	req := testutil.NewFormRequest(t, http.MethodPost, "/oauth2/token", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {"c0de"},
		"redirect_uri": {"https://app1/cb"},
	})
	req.SetBasicAuth("app1", "s3cret")
	rec := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	body := *testutil.UnmarshalResponse[map[string]any](t, rec)
	assert.Equal(t, "t0ken", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.NotContains(t, body, "id_token")
	assert.Equal(t, map[string]any{"email": "jo@example.test", "name": "Jo"}, body["user"])
}

func TestTokenIncludesIdentityToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Token(gomock.Any(), gomock.Any()).
		Return(&service.TokenResult{
			AccessToken:   "t0ken",
			TokenType:     "Bearer",
			IdentityToken: "header.payload.sig",
			UserEmail:     "jo@example.test",
			UserName:      "Jo",
		}, nil)

	req := testutil.NewFormRequest(t, http.MethodPost, "/oidc/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"c0de"},
		"redirect_uri":  {"https://app1/cb"},
		"client_id":     {"app1"},
		"client_secret": {"s3cret"},
	})
	rec := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	body := *testutil.UnmarshalResponse[map[string]any](t, rec)
	assert.Equal(t, "header.payload.sig", body["id_token"])
}

func TestTokenErrorMapping(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantStatus      int
		wantError       string
		wantDescription string
	}{
		{"bad credentials", models.ErrUnauthenticatedClient(), http.StatusUnauthorized, "invalid_client", "Client authentication failed"},
		{"unknown code", models.ErrTokenInvalidCode(), http.StatusForbidden, "invalid_grant", "Invalid authorization code"},
		{"client mismatch", models.ErrTokenInvalidClientID(), http.StatusForbidden, "invalid_grant", "Invalid client id"},
		{"redirect mismatch", models.ErrTokenInvalidRedirectURI(), http.StatusForbidden, "invalid_grant", "Invalid redirect uri"},
		{"expired", models.ErrTokenGrantExpired(), http.StatusForbidden, "invalid_grant", "Grant has expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().Token(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			req := testutil.NewFormRequest(t, http.MethodPost, "/oauth2/token", url.Values{
				"grant_type": {"authorization_code"},
			})
			rec := testutil.DoRequest(newRouter(svc), req)

			testutil.AssertStatus(t, rec, tt.wantStatus)
			errResp := testutil.UnmarshalErrorResponse(t, rec)
			assert.Equal(t, tt.wantError, errResp["error"])
			assert.Equal(t, tt.wantDescription, errResp["error_description"])
		})
	}
}

func TestInternalErrorsAreRedacted(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Token(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInternal, "grant table on fire"))

	req := testutil.NewFormRequest(t, http.MethodPost, "/oauth2/token", url.Values{
		"grant_type": {"authorization_code"},
	})
	rec := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	errResp := testutil.UnmarshalErrorResponse(t, rec)
	assert.Equal(t, "internal_error", errResp["error"])
	require.NotContains(t, errResp, "error_description")
}
