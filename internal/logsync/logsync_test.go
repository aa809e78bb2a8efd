package logsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// fakeClient records calls in order.
type fakeClient struct {
	mu      sync.Mutex
	ops     []string
	callID  string
	failNew bool
}

func (f *fakeClient) record(op string) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	f.mu.Unlock()
}

func (f *fakeClient) CreateCallLog(ctx context.Context, userID int, mode, language string) (string, error) {
	if f.failNew {
		f.record("create:failed")
		return "", errors.New("store down")
	}
	f.record("create")
	return f.callID, nil
}

func (f *fakeClient) AppendMessage(ctx context.Context, callID, text, sender string, method *string) error {
	f.record("message:" + callID + ":" + text)
	return nil
}

func (f *fakeClient) PatchCallLog(ctx context.Context, callID string, patch CallPatch) error {
	f.record("patch:" + callID)
	return nil
}

func (f *fakeClient) UploadRecording(ctx context.Context, audio []byte, contentType string) (string, error) {
	f.record("upload")
	return "/recordings/r1.webm", nil
}

func (f *fakeClient) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func TestSyncerAppliesTasksInOrder(t *testing.T) {
	fc := &fakeClient{callID: "call-1"}
	s := NewSyncer(fc, nil)

	s.StartCall(1, "deaf", "en-US")
	s.Message("hello", "caller", nil)
	method := "text"
	s.Message("hi there", "user", &method)
	s.EndCall(time.Now().UTC(), 42)
	s.Close()

	want := []string{"create", "message:call-1:hello", "message:call-1:hi there", "patch:call-1"}
	got := fc.history()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d = %q, want %q", i, got[i], want[i])
		}
	}
	if s.CallID() != "call-1" {
		t.Fatalf("CallID = %q", s.CallID())
	}
}

func TestSyncerDropsTasksWhenCreateFails(t *testing.T) {
	fc := &fakeClient{failNew: true}
	s := NewSyncer(fc, nil)

	s.StartCall(1, "deaf", "en-US")
	s.Message("lost", "caller", nil)
	s.EndCall(time.Now().UTC(), 5)
	s.Close()

	got := fc.history()
	if len(got) != 1 || got[0] != "create:failed" {
		t.Fatalf("ops = %v, want only the failed create", got)
	}
}

func TestSyncerAttachRecordingUploadsThenPatches(t *testing.T) {
	fc := &fakeClient{callID: "call-9"}
	s := NewSyncer(fc, nil)

	var uploaded, attached bool
	s.StartCall(1, "both", "en-US")
	s.AttachRecording([]byte("audio-bytes"), "audio/webm",
		func() { uploaded = true },
		func() { attached = true })
	s.Close()

	got := fc.history()
	want := []string{"create", "upload", "patch:call-9"}
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !uploaded || !attached {
		t.Fatalf("hooks: uploaded=%v attached=%v", uploaded, attached)
	}
}

func TestSyncerSkipsRecordingWithoutCallID(t *testing.T) {
	fc := &fakeClient{failNew: true}
	s := NewSyncer(fc, nil)

	var uploaded bool
	s.StartCall(1, "both", "en-US")
	s.AttachRecording([]byte("audio"), "audio/webm", func() { uploaded = true }, nil)
	s.Close()

	if uploaded {
		t.Fatal("upload started despite the call log never being created")
	}
}

func TestSyncerCloseIsIdempotent(t *testing.T) {
	s := NewSyncer(&fakeClient{callID: "c"}, nil)
	s.Close()
	s.Close()
	// Enqueues after close are dropped, not panics.
	s.Message("late", "caller", nil)
}

func TestHTTPClientRoundTrips(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/call-logs", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "bad body"})
			return
		}
		if body["mode"] != "deaf" || body["language"] != "en-US" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unexpected body"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": "created-id"})
	})
	r.POST("/api/call-logs/:id/messages", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "m1"})
	})
	r.PATCH("/api/call-logs/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.POST("/api/recordings", func(c *gin.Context) {
		if _, _, err := c.Request.FormFile("audio"); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no audio"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": "r1", "path": "/recordings/r1.webm"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	ctx := context.Background()

	id, err := c.CreateCallLog(ctx, 1, "deaf", "en-US")
	if err != nil || id != "created-id" {
		t.Fatalf("CreateCallLog = %q, %v", id, err)
	}
	if err := c.AppendMessage(ctx, id, "hello", "caller", nil); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	d := 12
	if err := c.PatchCallLog(ctx, id, CallPatch{Duration: &d}); err != nil {
		t.Fatalf("PatchCallLog: %v", err)
	}
	path, err := c.UploadRecording(ctx, []byte("audio"), "audio/webm")
	if err != nil || path != "/recordings/r1.webm" {
		t.Fatalf("UploadRecording = %q, %v", path, err)
	}
}

func TestHTTPClientSurfacesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	if err := c.AppendMessage(context.Background(), "missing", "x", "caller", nil); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
