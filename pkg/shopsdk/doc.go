/*
Package shopsdk provides a client SDK for the storefront API.

# Overview

The package keeps the client-side state of a storefront: who is signed in,
what is in the cart and which page of the catalog is on screen. Each piece of
state has one owner and is read back through snapshot accessors.

  - SDKClient: one HTTP round-trip per call, error classification, pacing
  - Session: the signed-in identity and its bearer credential
  - Transport: attaches the credential and retries once after a refresh
  - Cart: optimistic cart edits kept in step with the server
  - Catalog: paged product listing and product maintenance
  - Orders: order history and checkout
  - Users: account administration for admins

Wire them together once:

	client := shopsdk.NewSDKClient("https://shop.example.com/api", logger)
	session := shopsdk.NewSession(client, shopsdk.NewMemoryTokenStore(""))
	transport := shopsdk.NewTransport(client, session)

	cart := shopsdk.NewCart(transport)
	catalog := shopsdk.NewCatalog(transport, 10)
	orders := shopsdk.NewOrders(transport)

# Sessions

Login, Register and Logout move the session between anonymous and
authenticated. The credential is persisted through a TokenStore so that
Restore can pick it up in the next process:

	if _, err := session.Restore(ctx); err != nil {
		// The stored credential could not be refreshed; the session is anonymous.
	}

	id, err := session.Login(ctx, "ada@example.com", "secret")
	if errors.Is(err, shopsdk.ErrAuthentication) {
		// Wrong email or password.
	}

# Credential Refresh

When the API rejects a credential, the Transport asks the Session for a new
one and repeats the request exactly once. However many requests are rejected
at the same time, only one refresh request is sent; every waiter gets its
result. A failed refresh ends the session:

	err := cart.Fetch(ctx)
	if errors.Is(err, shopsdk.ErrRefreshFailed) {
		// Signed out; send the user to Gate(nil).Path().
	}

Setting Session.RefreshSkew refreshes a JWT credential shortly before it
expires instead of waiting for the rejection.

# Cart

UpdateQuantity shows its effect before the server answers and rolls it back
if the request fails. AddItem, RemoveItem, Clear and Fetch wait for the
server's cart and then adopt it. Totals always match the lines. While the
session is anonymous the cart only lives locally.

# Errors

Every error matches one of the Err* sentinels through errors.Is. Responses
with a non-2xx status are *APIError values carrying the status code and the
server's message:

	var apiErr *shopsdk.APIError
	if errors.As(err, &apiErr) {
		fmt.Println(apiErr.StatusCode, apiErr.Message)
	}
*/
package shopsdk
