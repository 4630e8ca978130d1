package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNotifier(baseURL string) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "", zap.NewNop())
	tn.APIBase = baseURL
	return tn
}

func decodeSend(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	return payload
}

func TestTelegramNotifier_Send(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		payload := decodeSend(t, r)
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		texts = append(texts, payload["text"])
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := newTestNotifier(srv.URL)
	require.NoError(t, tn.Send("hello"))
	assert.Equal(t, []string{"hello"}, texts)

	texts = nil
	long := strings.Repeat("row of the report\n", 400)
	require.NoError(t, tn.Send(long))
	require.Greater(t, len(texts), 1, "long messages are split")
	assert.Equal(t, long, strings.Join(texts, ""))
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"can't parse entities"}`))
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send("<b>broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "can't parse entities")
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	t.Run("recovers after a failure", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "hi", 3))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := newTestNotifier(srv.URL).SendWithRetry(ctx, "hi", 5)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTelegramNotifier_StartPolling(t *testing.T) {
	replies := make(chan string, 1)
	var served atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if served.CompareAndSwap(false, true) {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				w.Write([]byte(`{"ok":true,"result":[
{"update_id":7,"message":{"text":"  /last@trend_bot nvda "}},
{"update_id":8}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			time.Sleep(10 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			replies <- decodeSend(t, r)["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var got []string
	handler := func(cmd string) string {
		got = append(got, cmd)
		return "reply to " + cmd
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, handler)
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "reply to /last nvda", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/last nvda"}, got)
}
