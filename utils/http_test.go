package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"venturelink_server/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ActorID(r))

	r.Header.Set("X-User-ID", "ivy")
	assert.Equal(t, "ivy", ActorID(r))
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.Validation("bad"), http.StatusBadRequest},
		{apperrors.Authorization("no"), http.StatusForbidden},
		{apperrors.NotFound("missing"), http.StatusNotFound},
		{apperrors.Conflict("dup"), http.StatusConflict},
		{apperrors.State(apperrors.FlagBlocked, "blocked"), http.StatusConflict},
		{apperrors.Upstream("s3 down", errors.New("timeout")), http.StatusBadGateway},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestWriteErrorIncludesStateFlag(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperrors.State(apperrors.FlagRequestPending, "request already pending"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.FlagRequestPending, body["flag"])
	assert.Equal(t, "request already pending", body["error"])
}
