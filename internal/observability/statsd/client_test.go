package statsd

import (
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"
)

func TestFormatLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		metric string
		tags   map[string]string
		want   string
	}{
		{name: "no prefix no tags", metric: "pipeline.branch", want: "pipeline.branch:1|c"},
		{name: "prefix", prefix: "courtlist", metric: "job.transition", want: "courtlist.job.transition:1|c"},
		{
			name:   "tags sorted",
			metric: "pipeline.branch",
			tags:   map[string]string{"outcome": "success", "branch": "publish"},
			want:   "pipeline.branch:1|c|#branch:publish,outcome:success",
		},
		{name: "normalised name", metric: " reaper/cleanup..runs. ", want: "reaper_cleanup.runs:1|c"},
		{name: "empty name dropped", metric: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatLine(tt.prefix, tt.metric, "1|c", tt.tags); got != tt.want {
				t.Fatalf("formatLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeTags(t *testing.T) {
	t.Parallel()

	got := mergeTags(map[string]string{"env": "prod", "service": "courtlist"}, map[string]string{"env": "dev", " ": "x"})
	if got["env"] != "dev" || got["service"] != "courtlist" {
		t.Fatalf("mergeTags() = %v", got)
	}
	if _, ok := got[""]; ok {
		t.Fatal("mergeTags kept empty key")
	}
	if mergeTags(nil, nil) != nil {
		t.Fatal("expected nil for no tags")
	}
}

func TestClientWritesDatagrams(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{prefix: "courtlist", conn: clientConn, logger: newDiscardLogger()}

	done := make(chan string, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := peerConn.Read(buf)
		done <- string(buf[:n])
	}()

	client.Timing("pipeline.duration", 1500*time.Microsecond, map[string]string{"branch": "file"})

	select {
	case line := <-done:
		if line != "courtlist.pipeline.duration:1.5|ms|#branch:file" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("no datagram written")
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if !client.Enabled() {
		t.Fatal("expected client to be enabled with a connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to be disabled after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	nilClient.Count("x", 1, nil)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled without an address")
	}

	_, err = NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil || !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	tags := map[string]string{"branch": "publish"}
	r.Count("pipeline.branch", 1, tags)
	r.Gauge("reaper.last_success_epoch", 42, nil)
	tags["branch"] = "mutated"

	got := r.Find("pipeline.branch")
	if len(got) != 1 || got[0].Tags["branch"] != "publish" {
		t.Fatalf("Find() = %+v", got)
	}
	if len(r.Samples()) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(r.Samples()))
	}
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
