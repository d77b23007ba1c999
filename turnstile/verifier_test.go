// api/turnstile/verifier_test.go
package turnstile_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	logger "github.com/edgegate/api/logging"
	"github.com/edgegate/api/turnstile"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "verifier-test")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestCloudflareVerifier_Valid(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"secret":   r.PostFormValue("secret"),
			"response": r.PostFormValue("response"),
			"remoteip": r.PostFormValue("remoteip"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := turnstile.NewCloudflareVerifier("sekrit", srv.URL, time.Second)
	outcome := v.Verify(context.Background(), "tok-1", "203.0.113.7")

	assert.Equal(t, turnstile.Valid, outcome)
	assert.Equal(t, "sekrit", gotForm["secret"])
	assert.Equal(t, "tok-1", gotForm["response"])
	assert.Equal(t, "203.0.113.7", gotForm["remoteip"])
}

func TestCloudflareVerifier_OmitsEmptyRemoteIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		_, has := r.PostForm["remoteip"]
		assert.False(t, has, "remoteip must be omitted when unresolved")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := turnstile.NewCloudflareVerifier("sekrit", srv.URL, time.Second)
	assert.Equal(t, turnstile.Valid, v.Verify(context.Background(), "tok-1", ""))
}

func TestCloudflareVerifier_Invalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := turnstile.NewCloudflareVerifier("sekrit", srv.URL, time.Second)
	assert.Equal(t, turnstile.Invalid, v.Verify(context.Background(), "tok-bad", ""))
}

func TestCloudflareVerifier_CallFailed(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		v := turnstile.NewCloudflareVerifier("sekrit", srv.URL, time.Second)
		assert.Equal(t, turnstile.CallFailed, v.Verify(context.Background(), "tok-1", ""))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		v := turnstile.NewCloudflareVerifier("sekrit", srv.URL, time.Second)
		assert.Equal(t, turnstile.CallFailed, v.Verify(context.Background(), "tok-1", ""))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		v := turnstile.NewCloudflareVerifier("sekrit", srv.URL, time.Second)
		assert.Equal(t, turnstile.CallFailed, v.Verify(context.Background(), "tok-1", ""))
	})
}

func TestNewCloudflareVerifier_Defaults(t *testing.T) {
	v := turnstile.NewCloudflareVerifier("sekrit", "", 0)
	assert.NotNil(t, v)
}
