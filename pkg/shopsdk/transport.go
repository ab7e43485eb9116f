package shopsdk

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/storefront/pkg/idx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

// Transport sends API calls with the session's credential attached. A call
// rejected as unauthorized is retried at most once, after the session's
// single-flight refresh succeeds. Every other failure is returned untouched.
type Transport struct {
	client  *SDKClient
	session *Session
}

// NewTransport binds client to session.
func NewTransport(client *SDKClient, session *Session) *Transport {
	return &Transport{client: client, session: session}
}

// Session returns the session whose credential the transport uses.
func (t *Transport) Session() *Session { return t.session }

// attempt is one try of a call: its ordinal and the credential it carried.
type attempt struct {
	n          int
	credential string
}

// Do sends call and decodes the unwrapped response data into out (which may
// be nil). The request body is encoded once, and a retry reuses both the
// bytes and the X-Request-ID of the first try.
func (t *Transport) Do(ctx context.Context, call Call, out any) error {
	body, err := encodeBody(call.Body)
	if err != nil {
		return err
	}

	if slogx.RequestID(ctx) == "" {
		ctx = slogx.WithRequestID(ctx, idx.New().String())
	}

	if call.Public {
		return t.client.send(ctx, call, body, "", out)
	}

	cred, err := t.session.credentialFor(ctx)
	if err != nil {
		return err
	}

	at := attempt{credential: cred}
	for {
		err := t.client.send(ctx, call, body, at.credential, out)
		if err == nil || !errors.Is(err, ErrAuthorizationExpired) || at.n > 0 {
			return err
		}

		slogx.FromContext(ctx).Debug("authorization expired, refreshing", "call", call.String())

		fresh, rerr := t.session.refreshFor(ctx, at.credential)
		if rerr != nil {
			return errors.Join(err, rerr)
		}
		at = attempt{n: at.n + 1, credential: fresh}
	}
}
