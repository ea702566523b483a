package grabber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/grabber/helper"
)

// scriptedRequester replies per command from queued results.
type scriptedRequester struct {
	replies map[string][]reply
	calls   []string
}

type reply struct {
	result *definitions.Result
	err    error
}

func (s *scriptedRequester) Request(_ context.Context, command string) (*definitions.Result, error) {
	s.calls = append(s.calls, command)
	queue := s.replies[command]
	if len(queue) == 0 {
		return nil, errors.New("unexpected command " + command)
	}
	r := queue[0]
	if len(queue) > 1 {
		s.replies[command] = queue[1:]
	}
	return r.result, r.err
}

func statusResult(state string) reply {
	return reply{result: &definitions.Result{
		Kind:     definitions.KindStatus,
		Status:   &definitions.StatusInfo{State: state},
		Response: &definitions.ServerResponse{Type: definitions.TypeStatus, Status: definitions.StatusSuccess},
	}}
}

func payloadResult(data string, format definitions.ImageFormat) reply {
	w, h := 640, 480
	return reply{result: &definitions.Result{
		Kind:     definitions.KindPayload,
		Payload:  &definitions.ImagePayload{Bytes: []byte(data), Format: format, Width: &w, Height: &h},
		Response: &definitions.ServerResponse{Type: definitions.TypeImage, Status: definitions.StatusSuccess},
	}}
}

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)

func TestCaptureOnceSavesAutoNamedFile(t *testing.T) {
	dir := t.TempDir()
	req := &scriptedRequester{replies: map[string][]reply{
		"gettargetscreen": {payloadResult("frame-bytes", definitions.FormatUnknown)},
	}}
	capturer := NewCapturer(req, CaptureOptions{
		Command:   "gettargetscreen",
		OutputDir: dir,
		Verbose:   true,
		Now:       func() time.Time { return fixedNow },
	})

	capture, err := capturer.CaptureOnce(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	want := filepath.Join(dir, "openterface_20240102_030405_12345.jpg")
	if capture.Path != want {
		t.Fatalf("path=%q want %q", capture.Path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "frame-bytes" {
		t.Fatalf("saved file: %q %v", data, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestCaptureOnceExplicitOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "frame.bin")
	req := &scriptedRequester{replies: map[string][]reply{
		"lastimage": {payloadResult("abc", definitions.FormatRaw)},
	}}
	capturer := NewCapturer(req, CaptureOptions{Command: "lastimage", Output: out})

	capture, err := capturer.CaptureOnce(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if capture.Path != out {
		t.Fatalf("path=%q want %q", capture.Path, out)
	}
}

func TestCaptureOnceStatusSavesNothing(t *testing.T) {
	dir := t.TempDir()
	req := &scriptedRequester{replies: map[string][]reply{
		"checkstatus": {statusResult("idle")},
	}}
	capturer := NewCapturer(req, CaptureOptions{Command: "checkstatus", OutputDir: dir})

	capture, err := capturer.CaptureOnce(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if capture.Path != "" || capture.Result.Status.State != "idle" {
		t.Fatalf("unexpected capture %+v", capture)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("status capture wrote files: %v", entries)
	}
}

func TestCaptureOncePropagatesErrors(t *testing.T) {
	req := &scriptedRequester{replies: map[string][]reply{
		"lastimage": {{err: helper.ErrMissingContent}},
	}}
	capturer := NewCapturer(req, CaptureOptions{Command: "lastimage", OutputDir: t.TempDir()})

	if _, err := capturer.CaptureOnce(context.Background()); !errors.Is(err, helper.ErrMissingContent) {
		t.Fatalf("got %v", err)
	}
}

func TestScreenshotComposite(t *testing.T) {
	dir := t.TempDir()
	req := &scriptedRequester{replies: map[string][]reply{
		"FullScreenCapture": {{err: helper.ErrMissingData}},
		"checkstatus":       {statusResult("running"), statusResult("Running"), statusResult("finished")},
		"lastimage":         {payloadResult("saved", definitions.FormatRaw)},
	}}
	capturer := NewCapturer(req, CaptureOptions{
		Command:      "screenshot",
		OutputDir:    dir,
		PollInterval: time.Millisecond,
		Now:          func() time.Time { return fixedNow },
	})

	capture, err := capturer.CaptureOnce(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	wantCalls := []string{"FullScreenCapture", "checkstatus", "checkstatus", "checkstatus", "lastimage"}
	if len(req.calls) != len(wantCalls) {
		t.Fatalf("calls=%v want %v", req.calls, wantCalls)
	}
	for i := range wantCalls {
		if req.calls[i] != wantCalls[i] {
			t.Fatalf("calls=%v want %v", req.calls, wantCalls)
		}
	}
	if filepath.Ext(capture.Path) != ".jpg" {
		t.Fatalf("path=%q", capture.Path)
	}
}

func TestScreenshotScriptRejected(t *testing.T) {
	req := &scriptedRequester{replies: map[string][]reply{
		"FullScreenCapture": {{err: &helper.ServerError{Message: "no target"}}},
	}}
	capturer := NewCapturer(req, CaptureOptions{Command: "screenshot", PollInterval: time.Millisecond})

	_, err := capturer.Screenshot(context.Background())
	var serverErr *helper.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("got %v", err)
	}
	if len(req.calls) != 1 {
		t.Fatalf("must stop after the script fails: %v", req.calls)
	}
}

func TestScreenshotPollBudget(t *testing.T) {
	req := &scriptedRequester{replies: map[string][]reply{
		"FullScreenCapture": {statusResult("running")},
		"checkstatus":       {statusResult("running")},
	}}
	capturer := NewCapturer(req, CaptureOptions{
		Command:      "screenshot",
		PollInterval: time.Millisecond,
		PollMax:      3,
	})

	_, err := capturer.Screenshot(context.Background())
	if !errors.Is(err, ErrScriptStillRunning) {
		t.Fatalf("got %v", err)
	}
	if len(req.calls) != 4 {
		t.Fatalf("calls=%v", req.calls)
	}
}

func TestLoopCountAndFailures(t *testing.T) {
	req := &scriptedRequester{replies: map[string][]reply{
		"gettargetscreen": {
			payloadResult("a", definitions.FormatJPEG),
			{err: helper.ErrMissingData},
			payloadResult("c", definitions.FormatJPEG),
		},
	}}
	out := filepath.Join(t.TempDir(), "frame.jpg")
	capturer := NewCapturer(req, CaptureOptions{Command: "gettargetscreen", Output: out})

	stats := capturer.Loop(context.Background(), time.Millisecond, 4)
	if stats.Attempts != 4 || stats.Succeeded != 3 || stats.Failed != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "c" {
		t.Fatalf("last frame not kept: %q", data)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	req := &scriptedRequester{replies: map[string][]reply{
		"checkstatus": {statusResult("idle")},
	}}
	capturer := NewCapturer(req, CaptureOptions{Command: "checkstatus"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan LoopStats, 1)
	go func() { done <- capturer.Loop(ctx, 10*time.Millisecond, 0) }()

	select {
	case stats := <-done:
		if stats.Attempts == 0 || stats.Failed != 0 {
			t.Fatalf("stats=%+v", stats)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop after cancellation")
	}
}
