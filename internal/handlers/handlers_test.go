// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jason-s-yu/collabnet/internal/auth"
	"github.com/jason-s-yu/collabnet/internal/chat"
	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/matching"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

type testEnv struct {
	t       *testing.T
	store   *memStore
	friends *friends.MemoryStore
	media   *fakeMedia
	broker  *broker
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, auth.Init(time.Hour))

	fs := friends.NewMemoryStore()
	store := newMemStore(fs)
	md := newFakeMedia()
	br := newBroker()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := NewServer(Deps{
		Users:      store,
		Posts:      store,
		Collab:     store,
		Friends:    friends.NewService(fs, nil),
		Matching:   matching.NewService(store, store, nil),
		Chat:       chat.NewService(chat.NewMemoryStore(), br),
		Media:      md,
		Subscriber: br,
		Logger:     logger,
	})
	return &testEnv{t: t, store: store, friends: fs, media: md, broker: br, handler: srv.Routes()}
}

// user creates an account directly in the store and returns it with a session token.
func (e *testEnv) user(name string) (*models.User, string) {
	e.t.Helper()
	u := &models.User{Email: name + "@example.com", Username: name, Password: testPassword}
	require.NoError(e.t, e.store.CreateUser(context.Background(), u))
	token, err := auth.CreateJWT(u.ID)
	require.NoError(e.t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, token)
}

// upload posts a multipart form with text fields and at most one file.
func (e *testEnv) upload(path, token string, fields map[string]string, fileField, fileName string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.send(req, token)
}

func (e *testEnv) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body=%s", w.Body.String())
	return v
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body=%s", w.Body.String())
}
