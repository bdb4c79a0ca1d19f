package handler

import (
	"ecotrace/internal/oauth/service"
)

// AuthorizeResponse is the consent payload for GET /{oauth2,oidc}/authorize.
type AuthorizeResponse struct {
	TransactionID string                  `json:"transactionID"`
	RedirectURI   string                  `json:"redirectURI"`
	Client        AuthorizeClientResponse `json:"client"`
	User          AuthorizeUserResponse   `json:"user"`
}

type AuthorizeClientResponse struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

type AuthorizeUserResponse struct {
	Name string `json:"name"`
}

func authorizeResponseFrom(result *service.AuthorizeResult) *AuthorizeResponse {
	return &AuthorizeResponse{
		TransactionID: result.TransactionID,
		RedirectURI:   result.RedirectURI,
		Client: AuthorizeClientResponse{
			Name:    result.ClientName,
			LogoURL: result.ClientLogoURL,
		},
		User: AuthorizeUserResponse{Name: result.UserName},
	}
}

// TokenResponse is the body of a successful POST /{oauth2,oidc}/token.
type TokenResponse struct {
	AccessToken   string            `json:"access_token"`
	TokenType     string            `json:"token_type"`
	IdentityToken string            `json:"id_token,omitempty"`
	User          TokenUserResponse `json:"user"`
}

type TokenUserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func tokenResponseFrom(result *service.TokenResult) *TokenResponse {
	return &TokenResponse{
		AccessToken:   result.AccessToken,
		TokenType:     result.TokenType,
		IdentityToken: result.IdentityToken,
		User: TokenUserResponse{
			Email: result.UserEmail,
			Name:  result.UserName,
		},
	}
}
