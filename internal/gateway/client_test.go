package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/model"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", staticToken("tok"), opts...)
}

func TestClient_SendsBearerTokenAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/lists", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"l1","name":"Groceries","description":null,"isCompleted":false,"itemCount":2,"completedCount":1}]`)
	})

	lists, err := c.GetLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Groceries", lists[0].Name)
	assert.Nil(t, lists[0].Description)
	assert.Equal(t, 2, lists[0].ItemCount)
}

func TestClient_AuthEndpointsSendNoToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana", req.EmailOrUsername)
		_, _ = io.WriteString(w, `{"token":"jwt","userId":"u1","email":"ana@example.com","username":"ana"}`)
	})

	resp, err := c.Login(context.Background(), model.LoginRequest{EmailOrUsername: "ana", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, "u1", resp.UserID)
}

func TestClient_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			err := c.DeleteList(context.Background(), "l1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))

			var gwErr *Error
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.status, gwErr.HTTPStatus)
			assert.NotEmpty(t, gwErr.UserMessage())
		})
	}
}

func TestClient_MessageFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Name is required."}`, "Name is required."},
		{"field errors", `{"title":"One or more validation errors occurred.","errors":{"Title":["Title is too long."],"Name":["Name is required."]}}`, "Name is required.; Title is too long."},
		{"title only", `{"title":"Bad things"}`, "Bad things"},
		{"not json", `<html>oops</html>`, defaultMessage(KindValidation)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.CreateList(context.Background(), model.ListInput{Name: "x"})
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, staticToken("tok"))
	_, err := c.GetLists(context.Background())
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClient_TimeoutIsNetwork(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithTimeout(50*time.Millisecond))

	_, err := c.GetLists(context.Background())
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClient_ObserverSeesErrors(t *testing.T) {
	var seen []*Error
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithErrorObserver(func(err *Error) { seen = append(seen, err) }))

	_, err := c.GetLists(context.Background())
	require.Error(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, KindAuth, seen[0].Kind)
	assert.True(t, IsAuthError(err))
}

func TestClient_ReorderPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/lists/l1/items/reorder", r.URL.Path)

		var body model.ReorderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]int{"a": 1, "b": 0}, body.ItemOrders)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.ReorderItems(context.Background(), "l1", map[string]int{"a": 1, "b": 0}))
}

func TestClient_SetItemCompletedQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/lists/l1/items/i1/complete", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("isCompleted"))
		_, _ = io.WriteString(w, `{"id":"i1","listId":"l1","title":"x","isCompleted":true,"order":0}`)
	})

	item, err := c.SetItemCompleted(context.Background(), "l1", "i1", true)
	require.NoError(t, err)
	assert.True(t, item.IsCompleted)
}

func TestClient_UnexpectedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := c.GetList(context.Background(), "l1")
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.True(t, KindNetwork.Retryable())
	assert.True(t, KindServer.Retryable())
	assert.False(t, KindConflict.Retryable())
	assert.Equal(t, defaultMessage(KindUnknown), UserMessage(io.EOF))
}
