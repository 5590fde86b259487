package ws

import "time"

// ConnInfo identifies one inbox connection in logs and lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) payload(reason string) map[string]any {
	return map[string]any{
		"conn_id":     i.ConnID,
		"ip":          i.IP,
		"duration_ms": time.Since(i.ConnectedAt).Milliseconds(),
		"reason":      reason,
	}
}
