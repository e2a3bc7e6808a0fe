/*
Package accountsdk is the Go client for the account and product HTTP API.

Unauthenticated operations live on Client. Login returns a Session that
carries the signed-in user and bearer token; pass it explicitly to anything
that needs the current user and call Logout to discard it.

	client := accountsdk.NewClient("http://localhost:3000")
	session, err := client.Login(ctx, "ana@example.com", "secret")
	profile, err := session.GetProfile(ctx)

Password recovery is a three step exchange tracked by RecoveryFlow:

	flow := accountsdk.NewRecoveryFlow(client)
	err = flow.SubmitEmail(ctx, "ana@example.com")
	err = flow.SubmitAnswer(ctx, "Pet name?", "rex")
	err = flow.SubmitNewPassword(ctx, "new-secret")

A failed step leaves the flow where it was so the caller can retry.

Server failures are returned as *APIError, whose Message is the text meant
for the user.
*/
package accountsdk
