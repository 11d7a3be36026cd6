// Package gelf ships standard log output to Graylog over UDP.
package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends one GELF message per log line and implements io.Writer,
// so it can be combined with stderr through io.MultiWriter.
type Writer struct {
	conn     net.Conn
	hostname string
	facility string
}

func New(addr, facility string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = facility
	}

	return &Writer{conn: conn, hostname: hostname, facility: facility}, nil
}

// Message converts one standard log line into a GELF payload.
func (w *Writer) Message(line string, now time.Time) map[string]any {
	msg := strings.TrimRight(line, "\n")

	// "2006/01/02 15:04:05 " prefix of the standard logger
	short := msg
	if len(msg) > 20 && msg[4] == '/' && msg[7] == '/' && msg[10] == ' ' && msg[13] == ':' {
		short = msg[20:]
	}

	level := 6
	switch {
	case strings.Contains(short, "PANIC:") || strings.Contains(short, "Fatal") || strings.HasPrefix(short, "Error"):
		level = 3
	case strings.HasPrefix(short, "Warning:"):
		level = 4
	}

	return map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": short,
		"timestamp":     float64(now.UnixNano()) / 1e9,
		"level":         level,
		"_service":      w.facility,
	}
}

func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.Message(string(p), time.Now()))
	if err != nil {
		return len(p), nil
	}

	// fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}
