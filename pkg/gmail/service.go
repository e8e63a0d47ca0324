package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"

	"github.com/emersion/go-message/mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = accountdomain.TokenUpdateFunc

type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// oauthConfig builds a fresh config per call. Credentials are never held on
// a shared mutable client, so concurrent requests cannot observe each
// other's tokens.
func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gmail.GmailSendScope,
			"https://www.googleapis.com/auth/userinfo.email",
		},
	}
}

// ExchangeCode trades an authorization code for access/refresh tokens.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*accountdomain.Tokens, error) {
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get gmail tokens: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("gmail token exchange returned no access token")
	}

	return &accountdomain.Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// FetchIdentity resolves the email address the tokens authenticate as.
func (s *Service) FetchIdentity(ctx context.Context, tokens *accountdomain.Tokens) (string, error) {
	srv, err := s.gmailService(ctx, tokens.AccessToken, tokens.RefreshToken, nil)
	if err != nil {
		return "", err
	}

	profile, err := srv.Users.GetProfile("me").Do()
	if err != nil {
		return "", fmt.Errorf("unable to resolve gmail profile: %w", err)
	}
	if profile.EmailAddress == "" {
		return "", errors.New("gmail profile has no email address")
	}

	return profile.EmailAddress, nil
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(&accountdomain.Tokens{
			AccessToken:  t.AccessToken,
			RefreshToken: t.RefreshToken,
			ExpiresAt:    t.Expiry,
		}); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// gmailService creates a Gmail API client bound to the given credentials.
func (s *Service) gmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	tokenSource := s.oauthConfig().TokenSource(ctx, token)

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	return srv, nil
}

// Transport is an OAuth2-authenticated send channel bound to one account.
type Transport struct {
	srv *gmail.Service
}

// NewTransport binds a send channel to the account's credentials. Refreshed
// tokens are reported through onTokenRefresh so storage stays current.
func (s *Service) NewTransport(ctx context.Context, account *accountdomain.MailAccount, onTokenRefresh TokenUpdateFunc) (*Transport, error) {
	srv, err := s.gmailService(ctx, account.AccessToken, account.RefreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	return &Transport{srv: srv}, nil
}

// Send delivers one message through the Gmail API as a raw MIME message.
func (t *Transport) Send(ctx context.Context, msg *accountdomain.OutgoingMessage) error {
	raw, err := buildMIMEMessage(msg)
	if err != nil {
		return err
	}

	gmsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}

	if _, err := t.srv.Users.Messages.Send("me", gmsg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}

	return nil
}

func buildMIMEMessage(msg *accountdomain.OutgoingMessage) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.From}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("unable to build message: %w", err)
	}
	if _, err := io.WriteString(w, msg.HTMLBody); err != nil {
		w.Close()
		return nil, fmt.Errorf("unable to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("unable to finalize message: %w", err)
	}

	return buf.Bytes(), nil
}
