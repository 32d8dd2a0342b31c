package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readyStatus = `{"required":{"default_llm":true,"default_embedding_model":true,"datasource":false}}`

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, creds client.CredentialProvider) *client.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := client.New(server.URL, creds, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestBuildURLParams(t *testing.T) {
	t.Run("BuildURLParams_OmitsNil", func(t *testing.T) {
		var missing *int
		values := client.BuildURLParams(map[string]any{
			"page":   2,
			"size":   50,
			"query":  nil,
			"source": missing,
		})

		assert.Equal(t, "page=2&size=50", values.Encode())
	})

	t.Run("BuildURLParams_DereferencesAndStringifies", func(t *testing.T) {
		id := 7
		enabled := true
		values := client.BuildURLParams(map[string]any{
			"data_source_id": &id,
			"enabled":        &enabled,
			"ratio":          0.5,
			"name":           "a b",
		})

		assert.Equal(t, "data_source_id=7&enabled=true&name=a+b&ratio=0.5", values.Encode())
	})

	t.Run("BuildURLParams_RepeatsSlices", func(t *testing.T) {
		values := client.BuildURLParams(map[string]any{"index_status": []string{"failed", "pending"}})

		assert.Equal(t, []string{"failed", "pending"}, values["index_status"])
	})

	t.Run("BuildURLParams_Empty", func(t *testing.T) {
		assert.Empty(t, client.BuildURLParams(nil).Encode())
	})
}

func TestHandleResponse(t *testing.T) {
	handle := client.HandleResponse(schema.BootstrapStatus)

	t.Run("HandleResponse_Valid", func(t *testing.T) {
		status, err := handle(newResponse(http.StatusOK, readyStatus))

		require.NoError(t, err)
		assert.True(t, status.Required.DefaultLLM)
		assert.False(t, status.Ready())
	})

	t.Run("HandleResponse_SchemaMismatch", func(t *testing.T) {
		_, err := handle(newResponse(http.StatusOK, `{"required":{"default_llm":"yes"}}`))

		require.Error(t, err)
		assert.True(t, schema.IsValidationError(err))
		assert.Zero(t, client.StatusCode(err))
	})

	t.Run("HandleResponse_NotFoundDetail", func(t *testing.T) {
		_, err := handle(newResponse(http.StatusNotFound, `{"detail":"Document not found"}`))

		var httpErr *client.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, "Document not found", httpErr.Message)
		assert.True(t, client.IsNotFound(err))
		assert.False(t, schema.IsValidationError(err))
	})

	t.Run("HandleResponse_ValidationDetailList", func(t *testing.T) {
		_, err := handle(newResponse(http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["query","size"],"msg":"too large"},{"loc":["query","page"],"msg":"too small"}]}`))

		var httpErr *client.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, "too large; too small", httpErr.Message)
	})

	t.Run("HandleResponse_MessageField", func(t *testing.T) {
		_, err := handle(newResponse(http.StatusForbidden, `{"message":"forbidden here"}`))

		var httpErr *client.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, "forbidden here", httpErr.Message)
	})

	t.Run("HandleResponse_NestedErrorMessage", func(t *testing.T) {
		_, err := handle(newResponse(http.StatusBadRequest, `{"error":{"code":"BAD","message":"bad input"}}`))

		var httpErr *client.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, "bad input", httpErr.Message)
	})

	t.Run("HandleResponse_GenericMessage", func(t *testing.T) {
		_, err := handle(newResponse(http.StatusInternalServerError, `<html>oops</html>`))

		var httpErr *client.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, "500 Internal Server Error", httpErr.Message)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestHandleErrors(t *testing.T) {
	t.Run("HandleErrors_NoContent", func(t *testing.T) {
		assert.NoError(t, client.HandleErrors(newResponse(http.StatusNoContent, "")))
	})

	t.Run("HandleErrors_Unauthorized", func(t *testing.T) {
		err := client.HandleErrors(newResponse(http.StatusUnauthorized, `{"detail":"Unauthorized"}`))

		assert.Equal(t, http.StatusUnauthorized, client.StatusCode(err))
	})
}

func TestClient(t *testing.T) {
	t.Run("New_RejectsBadScheme", func(t *testing.T) {
		_, err := client.New("ftp://backend", nil, zerolog.Nop())

		assert.Error(t, err)
	})

	t.Run("Get_SendsHeadersAndQuery", func(t *testing.T) {
		var got *http.Request
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r
			w.Write([]byte(readyStatus))
		}, client.BearerToken("secret"))

		_, err := client.Get(context.Background(), c, "/api/v1/system/bootstrap-status",
			client.BuildURLParams(map[string]any{"page": 1}), schema.BootstrapStatus)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "/api/v1/system/bootstrap-status", got.URL.Path)
		assert.Equal(t, "page=1", got.URL.RawQuery)
		assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
		_, err = uuid.Parse(got.Header.Get(client.RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("Get_ForwardedCredentials", func(t *testing.T) {
		var cookie, auth string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			cookie = r.Header.Get("Cookie")
			auth = r.Header.Get("Authorization")
			w.Write([]byte(readyStatus))
		}, client.ForwardedCredentials{})

		incoming := http.Header{}
		incoming.Set("Cookie", "session=abc")
		incoming.Set("X-Other", "dropped")
		ctx := client.WithForwardedCredentials(context.Background(), incoming)

		_, err := client.Get(ctx, c, "/status", nil, schema.BootstrapStatus)

		require.NoError(t, err)
		assert.Equal(t, "session=abc", cookie)
		assert.Empty(t, auth)
	})

	t.Run("Get_PropagatesRequestID", func(t *testing.T) {
		var id string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			id = r.Header.Get(client.RequestIDHeader)
			w.Write([]byte(readyStatus))
		}, nil)

		ctx := client.WithRequestID(context.Background(), "req-123")
		_, err := client.Get(ctx, c, "/status", nil, schema.BootstrapStatus)

		require.NoError(t, err)
		assert.Equal(t, "req-123", id)
	})

	t.Run("Get_CredentialFailureSkipsRequest", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}, client.NewCachedTokenCredentials(func(context.Context) (string, time.Time, error) {
			return "", time.Time{}, errors.New("identity provider down")
		}, 0))

		_, err := client.Get(context.Background(), c, "/status", nil, schema.BootstrapStatus)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "identity provider down")
		assert.Zero(t, atomic.LoadInt32(&calls))
	})

	t.Run("Delete_NotFound", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Datasource not found"}`))
		}, nil)

		err := client.Delete(context.Background(), c, "/api/v1/admin/datasources/9")

		assert.True(t, client.IsNotFound(err))
	})

	t.Run("Post_EncodesJSON", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"name":"x"}`, string(body))
			w.Write([]byte(readyStatus))
		}, nil)

		_, err := client.Post(context.Background(), c, "/things", map[string]string{"name": "x"}, schema.BootstrapStatus)

		assert.NoError(t, err)
	})
}

func TestForwardedOr(t *testing.T) {
	creds := client.ForwardedOr(client.BearerToken("service-key"))

	t.Run("ForwardedOr_PrefersCaller", func(t *testing.T) {
		incoming := http.Header{}
		incoming.Set("Authorization", "Bearer user-token")
		ctx := client.WithForwardedCredentials(context.Background(), incoming)

		headers, err := creds.AuthenticationHeaders(ctx)

		require.NoError(t, err)
		assert.Equal(t, "Bearer user-token", headers.Get("Authorization"))
	})

	t.Run("ForwardedOr_FallsBack", func(t *testing.T) {
		headers, err := creds.AuthenticationHeaders(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "Bearer service-key", headers.Get("Authorization"))
	})
}

func TestCachedTokenCredentials(t *testing.T) {
	t.Run("CachedToken_ReusesUntilExpiry", func(t *testing.T) {
		var fetches int32
		creds := client.NewCachedTokenCredentials(func(context.Context) (string, time.Time, error) {
			n := atomic.AddInt32(&fetches, 1)
			return "token-" + string(rune('0'+n)), time.Now().Add(time.Hour), nil
		}, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				headers, err := creds.AuthenticationHeaders(context.Background())
				assert.NoError(t, err)
				assert.Equal(t, "Bearer token-1", headers.Get("Authorization"))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	})

	t.Run("CachedToken_RefreshesWithinLeeway", func(t *testing.T) {
		var fetches int32
		creds := client.NewCachedTokenCredentials(func(context.Context) (string, time.Time, error) {
			atomic.AddInt32(&fetches, 1)
			return "short", time.Now().Add(10 * time.Second), nil
		}, time.Minute)

		_, err := creds.AuthenticationHeaders(context.Background())
		require.NoError(t, err)
		_, err = creds.AuthenticationHeaders(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
	})

	t.Run("CachedToken_Invalidate", func(t *testing.T) {
		var fetches int32
		creds := client.NewCachedTokenCredentials(func(context.Context) (string, time.Time, error) {
			atomic.AddInt32(&fetches, 1)
			return "t", time.Now().Add(time.Hour), nil
		}, 0)

		_, _ = creds.AuthenticationHeaders(context.Background())
		creds.Invalidate()
		_, _ = creds.AuthenticationHeaders(context.Background())

		assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
	})
}

func TestCachedTokenRefreshCancellation(t *testing.T) {
	t.Run("CachedToken_WaiterHonorsContext", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		creds := client.NewCachedTokenCredentials(func(ctx context.Context) (string, time.Time, error) {
			close(started)
			<-release
			return "slow", time.Now().Add(time.Hour), nil
		}, 0)

		done := make(chan error, 1)
		go func() {
			_, err := creds.AuthenticationHeaders(context.Background())
			done <- err
		}()
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := creds.AuthenticationHeaders(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(release)
		require.NoError(t, <-done)
		headers, err := creds.AuthenticationHeaders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer slow", headers.Get("Authorization"))
	})

	t.Run("CachedToken_InvalidatedOn401", func(t *testing.T) {
		var fetches int32
		creds := client.NewCachedTokenCredentials(func(context.Context) (string, time.Time, error) {
			atomic.AddInt32(&fetches, 1)
			return "t", time.Now().Add(time.Hour), nil
		}, 0)
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"token revoked"}`))
		}, creds)

		_, err := client.Get(context.Background(), c, "/status", nil, schema.BootstrapStatus)
		assert.Equal(t, http.StatusUnauthorized, client.StatusCode(err))
		_, err = client.Get(context.Background(), c, "/status", nil, schema.BootstrapStatus)
		assert.Equal(t, http.StatusUnauthorized, client.StatusCode(err))

		assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
	})
}

func TestCommandTokenSource(t *testing.T) {
	t.Run("CommandToken_JSONWithExpiry", func(t *testing.T) {
		before := time.Now()
		token, expiresAt, err := client.CommandTokenSource(`echo '{"access_token": "abc", "expires_in": 120}'`)(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "abc", token)
		assert.WithinDuration(t, before.Add(2*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("CommandToken_BareToken", func(t *testing.T) {
		token, expiresAt, err := client.CommandTokenSource("echo plain-token")(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "plain-token", token)
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("CommandToken_Failure", func(t *testing.T) {
		_, _, err := client.CommandTokenSource("echo denied >&2; exit 1")(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "denied")
	})

	t.Run("NewCredentials_FallsBackToAPIKey", func(t *testing.T) {
		headers, err := client.NewCredentials("service-key", "").AuthenticationHeaders(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "Bearer service-key", headers.Get("Authorization"))
	})
}

func TestPostFiles(t *testing.T) {
	t.Run("PostFiles_StreamsPartsInOrder", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			files := r.MultipartForm.File["files"]
			if !assert.Len(t, files, 2) {
				return
			}
			assert.Equal(t, "a.txt", files[0].Filename)
			assert.Equal(t, "text/plain", files[0].Header.Get("Content-Type"))
			assert.Equal(t, "b \"quoted\".pdf", files[1].Filename)
			assert.Equal(t, "application/octet-stream", files[1].Header.Get("Content-Type"))

			w.Write([]byte(`[
				{"id":1,"name":"a.txt","size":5,"path":"uploads/a.txt","mime_type":"text/plain","user_id":"u"},
				{"id":2,"name":"b \"quoted\".pdf","size":3,"path":"uploads/b.pdf","mime_type":"application/pdf","user_id":"u"}
			]`))
		}, nil)

		uploads, err := client.PostFiles(context.Background(), c, "/api/v1/admin/uploads", "files", []models.FileHandle{
			{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("hello")},
			{Name: `b "quoted".pdf`, Body: strings.NewReader("pdf")},
		}, schema.Uploads)

		require.NoError(t, err)
		require.Len(t, uploads, 2)
		assert.Equal(t, 1, uploads[0].ID)
		assert.Nil(t, uploads[0].CreatedAt)
	})

	t.Run("PostFiles_ServerError", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}, nil)

		_, err := client.PostFiles(context.Background(), c, "/api/v1/admin/uploads", "files", []models.FileHandle{
			{Name: "big.bin", Body: strings.NewReader("x")},
		}, schema.Uploads)

		assert.Equal(t, http.StatusRequestEntityTooLarge, client.StatusCode(err))
	})
}
