package accountsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recoveryServer(t *testing.T, resets *[]map[string]string) *Client {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /check-email", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["email"] != "ana@example.com" {
			writeError(w, http.StatusNotFound, KindNotFound, "email not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
	})
	mux.HandleFunc("POST /check-security-question-answer", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["securityQuestion"] != "Pet?" || req["securityAnswer"] != "rex" {
			writeError(w, http.StatusUnauthorized, KindSecurityMismatch, "incorrect security question or answer")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "recoveryToken": "grant-1"})
	})
	mux.HandleFunc("POST /reset-password", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*resets = append(*resets, req)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "password changed successfully"})
	})
	return newTestClient(t, mux)
}

func TestRecoveryFlow(t *testing.T) {
	var resets []map[string]string
	flow := NewRecoveryFlow(recoveryServer(t, &resets))
	ctx := context.Background()

	assert.Equal(t, StepStart, flow.Step())
	assert.ErrorIs(t, flow.SubmitAnswer(ctx, "Pet?", "rex"), ErrWrongStep)

	err := flow.SubmitEmail(ctx, "bob@example.com")
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, StepStart, flow.Step())
	assert.Equal(t, "email not found", flow.LastMessage())

	require.NoError(t, flow.SubmitEmail(ctx, "ana@example.com"))
	assert.Equal(t, StepAwaitingSecurityAnswer, flow.Step())
	assert.Empty(t, flow.LastMessage())

	err = flow.SubmitAnswer(ctx, "Pet?", "cat")
	assert.True(t, IsKind(err, KindSecurityMismatch))
	assert.Equal(t, StepAwaitingSecurityAnswer, flow.Step())
	assert.Equal(t, "incorrect security question or answer", flow.LastMessage())

	require.NoError(t, flow.SubmitAnswer(ctx, "Pet?", "rex"))
	assert.Equal(t, StepAwaitingNewPassword, flow.Step())

	require.NoError(t, flow.SubmitNewPassword(ctx, "new-secret"))
	assert.Equal(t, StepDone, flow.Step())
	assert.Equal(t, "done", flow.Step().String())

	require.Len(t, resets, 1)
	assert.Equal(t, map[string]string{
		"email":         "ana@example.com",
		"newPassword":   "new-secret",
		"recoveryToken": "grant-1",
	}, resets[0])

	assert.ErrorIs(t, flow.SubmitEmail(ctx, "ana@example.com"), ErrWrongStep)
}
