package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	// frameHeaderSize is 8 bytes requestID + 4 bytes payload length
	frameHeaderSize = 12

	// maxTokenSize bounds the handshake token frame
	maxTokenSize = 4096

	// maxFrameSize bounds a single request or response payload. The length
	// header is peer-controlled and must never drive a multi-gigabyte
	// allocation.
	maxFrameSize = 64 * 1024 * 1024 // 64 MB

	// handshakeAck is the single byte the server sends after accepting a
	// token. A rejected token gets no response at all, the connection is
	// simply closed.
	handshakeAck byte = 0x06
)

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, requestID uint64, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame payload %d exceeds %d bytes", len(data), maxFrameSize)
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], requestID)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer.
// If the buffer is too small, it will allocate a new temporary buffer for the data.
func readFrame(conn net.Conn, buf []byte) (uint64, []byte, error) {
	// Check if buffer is large enough for header
	if buf == nil || len(buf) < frameHeaderSize {
		buf = make([]byte, frameHeaderSize)
	}

	// Read header
	if _, err := io.ReadFull(conn, buf[:frameHeaderSize]); err != nil {
		return 0, nil, err
	}

	// Parse header
	requestID := binary.BigEndian.Uint64(buf[:8])
	contentLength := binary.BigEndian.Uint32(buf[8:12])

	if contentLength > maxFrameSize {
		return 0, nil, fmt.Errorf("frame payload %d exceeds %d bytes", contentLength, maxFrameSize)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return requestID, []byte{}, nil
	}

	// Check if buffer is large enough for data
	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}

	// Read data
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return 0, nil, err
	}

	return requestID, buf[:contentLength], nil
}

// writeToken writes the handshake token frame:
// - 2 bytes: token length (uint16, big endian)
// - N bytes: token
func writeToken(conn net.Conn, token string) error {
	if len(token) > maxTokenSize {
		return fmt.Errorf("token exceeds %d bytes", maxTokenSize)
	}

	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(len(token)))

	b := net.Buffers{header, []byte(token)}
	_, err := b.WriteTo(conn)
	return err
}

// readToken reads the handshake token frame sent by a client.
func readToken(conn net.Conn) (string, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(conn, header); err != nil {
		return "", err
	}

	length := binary.BigEndian.Uint16(header)
	if length > maxTokenSize {
		return "", fmt.Errorf("token length %d exceeds %d bytes", length, maxTokenSize)
	}
	if length == 0 {
		return "", nil
	}

	token := make([]byte, length)
	if _, err := io.ReadFull(conn, token); err != nil {
		return "", err
	}
	return string(token), nil
}
