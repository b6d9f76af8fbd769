package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/store"
)

func TestSeats_RoundTrip(t *testing.T) {
	s := newSeats("secret", time.Hour)
	tok, err := s.Issue("g1", logic.Black)
	require.NoError(t, err)

	gid, c, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "g1", gid)
	assert.Equal(t, logic.Black, c)

	_, _, err = newSeats("other", time.Hour).Verify(tok)
	assert.Error(t, err)

	_, _, err = s.Verify("not-a-token")
	assert.Error(t, err)
}

func TestSeats_Expired(t *testing.T) {
	s := newSeats("secret", time.Hour)
	tok, err := s.Issue("g1", logic.White)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = s.Verify(tok)
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name string
		hash string
		set  func(*http.Request)
		want int
	}{
		{"disabled", "", func(r *http.Request) { r.SetBasicAuth("admin", "hunter22") }, http.StatusForbidden},
		{"missing", string(hash), func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong", string(hash), func(r *http.Request) { r.SetBasicAuth("admin", "nope") }, http.StatusUnauthorized},
		{"basic", string(hash), func(r *http.Request) { r.SetBasicAuth("admin", "hunter22") }, http.StatusNoContent},
		{"bearer", string(hash), func(r *http.Request) { r.Header.Set("Authorization", "Bearer hunter22") }, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
			tc.set(req)
			rec := httptest.NewRecorder()
			requireAdmin(tc.hash)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestOpenStore(t *testing.T) {
	st, db, err := openStore("")
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.NotNil(t, st)

	path := t.TempDir() + "/nested/alfheimr.db"
	st, db, err = openStore(path)
	require.NoError(t, err)
	defer db.Close()

	// migrations are idempotent and recorded once each
	require.NoError(t, migrate(db))
	var applied int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	_, err = st.GetGame(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadRuleset(t *testing.T) {
	rs, err := loadRuleset("")
	require.NoError(t, err)
	assert.Equal(t, "Standard chess", rs.Name)

	_, err = loadRuleset(t.TempDir() + "/missing.yaml")
	assert.Error(t, err)
}
