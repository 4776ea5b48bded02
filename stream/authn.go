package stream

import (
	"context"

	"github.com/alpacahq/alpaca-api-client-go/common"
)

// authenticator performs the login handshake of a feed on a fresh connection
type authenticator interface {
	authenticate(ctx context.Context, c conn, creds common.Credentials) error
}

type marketDataAuthenticator struct{}

// authenticate discards the welcome message ([{"T":"success","msg":"connected"}]),
// sends the credentials and expects [{"T":"success","msg":"authenticated"}].
func (marketDataAuthenticator) authenticate(ctx context.Context, c conn, creds common.Credentials) error {
	if _, err := readText(ctx, c); err != nil {
		return err
	}
	if err := writeJSON(ctx, c, authRequest{key: creds.KeyID, secret: creds.SecretKey}); err != nil {
		return err
	}
	resp, err := readText(ctx, c)
	if err != nil {
		return err
	}
	if !isMarketDataAuthenticated(resp) {
		return &AuthError{Response: string(resp)}
	}
	return nil
}

type tradeUpdatesAuthenticator struct{}

// authenticate sends the credentials and expects an authorization message with status authorized
func (tradeUpdatesAuthenticator) authenticate(ctx context.Context, c conn, creds common.Credentials) error {
	req := tradeUpdatesAuthRequest{keyID: creds.KeyID, secretKey: creds.SecretKey}
	if err := writeJSON(ctx, c, req); err != nil {
		return err
	}
	resp, err := readText(ctx, c)
	if err != nil {
		return err
	}
	if !isTradeUpdatesAuthorized(resp) {
		return &AuthError{Response: string(resp)}
	}
	return nil
}
