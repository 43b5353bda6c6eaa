package shelly

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type rpcRecorder struct {
	mu       sync.Mutex
	requests []string
}

func (r *rpcRecorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, s)
}

func (r *rpcRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}

func newRPCServer(t *testing.T) (*httptest.Server, *rpcRecorder) {
	t.Helper()
	rec := &rpcRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/Cover.GoToPosition", func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path + "?" + r.URL.RawQuery)
		w.Write([]byte(`null`))
	})
	mux.HandleFunc("/rpc/Cover.GetStatus", func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path + "?" + r.URL.RawQuery)
		w.Write([]byte(`{"id":0,"source":"http","state":"stopped","pos_control":true,"current_pos":42,"slat_pos":30}`))
	})
	mux.HandleFunc("/rpc/Shelly.GetDeviceInfo", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Kitchen","id":"shellyplus2pm-a8032ab12345","mac":"A8032AB12345","model":"SNSW-102P16EU","gen":2,"fw_id":"20230913-114244/v1.14.0-gcb84623"}`))
	})
	mux.HandleFunc("/rpc/Broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-103,"message":"Invalid argument"}`, http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestRPCClient_GoToPosition(t *testing.T) {
	srv, rec := newRPCServer(t)
	c := NewRPCClient(srv.URL, srv.Client())

	if err := c.GoToPosition(context.Background(), 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.GoToSlatPosition(context.Background(), 70); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := rec.all()
	want := []string{
		"/rpc/Cover.GoToPosition?id=0&pos=40",
		"/rpc/Cover.GoToPosition?id=0&slat_pos=70",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRPCClient_Status(t *testing.T) {
	srv, _ := newRPCServer(t)
	c := NewRPCClient(srv.URL, srv.Client())

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.CurrentPos != 42 || status.SlatPos != 30 || !status.PosControl {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestRPCClient_DeviceInfo(t *testing.T) {
	srv, _ := newRPCServer(t)
	c := NewRPCClient(srv.URL, srv.Client())

	info, err := c.DeviceInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.MAC != "A8032AB12345" || info.Gen != 2 {
		t.Errorf("unexpected device info: %+v", info)
	}
}

func TestRPCClient_ErrorStatus(t *testing.T) {
	srv, _ := newRPCServer(t)
	c := NewRPCClient(srv.URL, srv.Client())

	err := c.call(context.Background(), "Broken", nil, nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if rpcErr.Code != http.StatusBadRequest || !strings.Contains(rpcErr.Body, "Invalid argument") {
		t.Errorf("unexpected error: %+v", rpcErr)
	}
}

func TestNewRPCClient_Address(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"192.168.1.20", "http://192.168.1.20"},
		{"192.168.1.20:8080/", "http://192.168.1.20:8080"},
		{"https://blinds.local", "https://blinds.local"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			c := NewRPCClient(tt.address, nil)
			if c.baseURL != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.baseURL)
			}
		})
	}
}
