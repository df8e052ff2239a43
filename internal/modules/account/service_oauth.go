package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthStateTTL = 5 * time.Minute

// oAuthUserInfo holds the standardized user information extracted from a provider.
type oAuthUserInfo struct {
	ID    string
	Email string
	Name  string
}

// oAuth abstracts a social sign-in provider. Only Google is wired today;
// adding a provider means another case in newOAuthProvider.
type oAuth interface {
	getOAuthConfig() *oauth2.Config
	getUserInfo(ctx context.Context, token *oauth2.Token) (*oAuthUserInfo, error)
}

// newOAuthProvider is a factory function that returns the correct provider implementation.
func (s *service) newOAuthProvider(provider OAuthProvider) (oAuth, error) {
	switch provider {
	case OAuthProviderGoogle:
		return &googleProvider{
			config: &oauth2.Config{
				ClientID:     s.config.Google.ClientID,
				ClientSecret: s.config.Google.ClientSecret,
				RedirectURL:  s.config.Google.RedirectURL,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			},
		}, nil
	default:
		return nil, ErrUnsupportedOAuthProvider.WithDetail(fmt.Sprintf("unsupported oauth provider: %s", provider))
	}
}

type googleProvider struct {
	config *oauth2.Config
}

func (g *googleProvider) getOAuthConfig() *oauth2.Config {
	return g.config
}

func (g *googleProvider) getUserInfo(ctx context.Context, token *oauth2.Token) (*oAuthUserInfo, error) {
	client := g.config.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info from google: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response body: %w", err)
	}

	var userInfo struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}

	return &oAuthUserInfo{
		ID:    userInfo.ID,
		Email: userInfo.Email,
		Name:  userInfo.Name,
	}, nil
}

// InitiateOAuthLogin generates the provider redirect URL plus a stored state
// for CSRF protection and PKCE.
func (s *service) InitiateOAuthLogin(ctx context.Context, provider OAuthProvider) (string, error) {
	oauthProvider, err := s.newOAuthProvider(provider)
	if err != nil {
		return "", err
	}

	state, err := generateSecureToken(32)
	if err != nil {
		return "", ErrInternal.WithCause(fmt.Errorf("failed to generate oauth state: %w", err))
	}
	verifier := oauth2.GenerateVerifier()
	now := s.now()
	err = s.repo.InsertOAuthState(ctx, &OAuthState{
		State:     state,
		Provider:  provider,
		Verifier:  verifier,
		ExpiresAt: now.Add(oauthStateTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", ErrInternal.WithCause(fmt.Errorf("failed to store oauth state: %w", err))
	}

	url := oauthProvider.getOAuthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
	return url, nil
}

// HandleOAuthCallback processes the provider callback. It verifies the state,
// exchanges the code for a token, fetches the user info, finds or provisions a
// local account (new social sign-ins become customers), and issues the same
// token pair as a password login.
func (s *service) HandleOAuthCallback(ctx context.Context, provider OAuthProvider, state, code string) (*LoginResult, error) {
	oauthProvider, err := s.newOAuthProvider(provider)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.GetOAuthStateByState(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Error("oauth state not found", "error", err)
			return nil, ErrOAuthStateInvalid.WithCause(err)
		}
		s.logger.Error("error getting oauth state", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrOAuthStateInvalid.WithDetail("state expired")
	}
	defer s.repo.DeleteOAuthState(ctx, state)

	oauthToken, err := oauthProvider.getOAuthConfig().Exchange(ctx, code, oauth2.VerifierOption(stored.Verifier))
	if err != nil {
		return nil, ErrOAuthExchangeFailed.WithCause(fmt.Errorf("failed to exchange oauth code for token: %w", err))
	}

	userInfo, err := oauthProvider.getUserInfo(ctx, oauthToken)
	if err != nil {
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}
	if userInfo.Email == "" {
		return nil, ErrOAuthEmailMissing
	}

	identity, err := s.repo.FindIdentityByEmail(ctx, userInfo.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to find identity during oauth callback", "error", err)
			return nil, ErrInternal.WithCause(err)
		}
		identity, err = s.provisionOAuthIdentity(ctx, userInfo)
		if err != nil {
			return nil, err
		}
	}

	acct, err := s.resolveAccount(ctx, identity)
	if err != nil {
		return nil, err
	}

	accessToken, err := generateAccessToken(s.config.JWTSecret, acct.ID, acct.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	sessionToken, err := s.sessions.Create(ctx, acct.ID, "", "")
	if err != nil {
		s.logger.Error("failed to create auth session after oauth login", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("account logged in via oauth", "provider", provider, "account_id", acct.ID)

	return &LoginResult{
		Account:          acct,
		AccessToken:      accessToken,
		SessionToken:     sessionToken,
		EmailUnconfirmed: !identity.EmailVerified,
	}, nil
}

// provisionOAuthIdentity creates a new identity (and customer profile) for a
// first-time social sign-in. The provider already verified email ownership, so
// the identity starts out confirmed. A random password keeps the password
// login path closed until the user explicitly sets one via recovery.
func (s *service) provisionOAuthIdentity(ctx context.Context, userInfo *oAuthUserInfo) (*Identity, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	randomPassword, err := generateSecureToken(32)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	hashedPassword, err := hashPassword(randomPassword)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	now := s.now()
	identity := &Identity{
		ID:            id.String(),
		Email:         userInfo.Email,
		PasswordHash:  hashedPassword,
		EmailVerified: true,
		MetaFullName:  userInfo.Name,
		MetaRole:      RoleCustomer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		s.logger.Error("failed to create identity from oauth", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	profile := &Profile{
		ID:        identity.ID,
		FullName:  userInfo.Name,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		s.logger.Warn("profile row creation failed for oauth account", "error", err, "account_id", identity.ID)
	}

	s.logger.Info("new account provisioned via oauth", "account_id", identity.ID)
	return identity, nil
}
