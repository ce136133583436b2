package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"strings"
	"testing"
)

// TestFrameRoundTrip tests that frames survive a write/read cycle
func TestFrameRoundTrip(t *testing.T) {
	testCases := []struct {
		name      string
		requestID uint64
		data      []byte
	}{
		{"Empty", 1, []byte{}},
		{"Small", 2, []byte("hello")},
		{"Binary", 42, []byte{0x00, 0xff, 0x10, 0x7f}},
		{"Large", 7, bytes.Repeat([]byte("x"), 1024*64)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- writeFrame(client, tc.requestID, tc.data)
			}()

			requestID, data, err := readFrame(server, nil)
			if err != nil {
				t.Fatalf("readFrame returned error: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame returned error: %v", err)
			}

			if requestID != tc.requestID {
				t.Errorf("requestID = %d, expected %d", requestID, tc.requestID)
			}
			if !bytes.Equal(data, tc.data) {
				t.Errorf("data mismatch: got %d bytes, expected %d bytes", len(data), len(tc.data))
			}
		})
	}
}

// TestFrameBufferReuse tests that a pooled buffer is used when large enough
func TestFrameBufferReuse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := []byte("payload")
	go func() {
		_ = writeFrame(client, 3, payload)
	}()

	buf := make([]byte, 1024)
	_, data, err := readFrame(server, buf)
	if err != nil {
		t.Fatalf("readFrame returned error: %v", err)
	}

	// The returned slice must alias the provided buffer
	if &data[0] != &buf[0] {
		t.Errorf("Expected data to reuse the provided buffer")
	}
}

// TestFrameTooLarge tests that a peer-controlled length header cannot
// force an oversized allocation
func TestFrameTooLarge(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], 1)
	binary.BigEndian.PutUint32(header[8:12], maxFrameSize+1)

	go func() {
		_, _ = client.Write(header)
	}()

	if _, _, err := readFrame(server, nil); err == nil {
		t.Errorf("Expected error for oversized frame, got none")
	}
}

// TestWriteFrameTooLarge tests that oversized payloads are rejected on the
// write side before anything hits the wire
func TestWriteFrameTooLarge(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()

	if err := writeFrame(client, 1, make([]byte, maxFrameSize+1)); err == nil {
		t.Errorf("Expected error for oversized payload, got none")
	}
}

// TestTokenRoundTrip tests the handshake token framing
func TestTokenRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{"Empty", ""},
		{"Short", "secret"},
		{"Long", strings.Repeat("t", maxTokenSize)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- writeToken(client, tc.token)
			}()

			token, err := readToken(server)
			if err != nil {
				t.Fatalf("readToken returned error: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeToken returned error: %v", err)
			}

			if token != tc.token {
				t.Errorf("token = %q, expected %q", token, tc.token)
			}
		})
	}
}

// TestTokenTooLong tests that oversized tokens are rejected on the write side
func TestTokenTooLong(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()

	if err := writeToken(client, strings.Repeat("t", maxTokenSize+1)); err == nil {
		t.Errorf("Expected error for oversized token, got none")
	}
}
