package gelf

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageLevels(t *testing.T) {
	w := &Writer{hostname: "host-1", facility: "fit-contracts"}
	now := time.Unix(1773446400, 0)

	m := w.Message("2026/03/14 09:00:00 Warning: remote upload failed\n", now)
	assert.Equal(t, "Warning: remote upload failed", m["short_message"])
	assert.Equal(t, 4, m["level"])
	assert.Equal(t, "fit-contracts", m["_service"])
	assert.Equal(t, float64(1773446400), m["timestamp"])

	m = w.Message("Error during fallback sweep", now)
	assert.Equal(t, 3, m["level"])

	m = w.Message("Filled registration-form for Jane Smith", now)
	assert.Equal(t, 6, m["level"])
}

func TestWriteSendsUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	w, err := New(pc.LocalAddr().String(), "fit-contracts")
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write([]byte("2026/03/14 09:00:00 hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 26, n)

	buf := make([]byte, 2048)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	read, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(buf[:read], &msg))
	assert.Equal(t, "hello", msg["short_message"])
	assert.Equal(t, "1.1", msg["version"])
}
