package feed

import (
	"fmt"
	"strings"
)

// EndpointPath is the fixed path of the push channel on the feed origin.
const EndpointPath = "/d"

// WebSocketURL derives the push-channel endpoint from a page origin,
// upgrading the HTTP(S) scheme to its WS(S) equivalent.
func WebSocketURL(origin string) string {
	origin = strings.TrimRight(origin, "/")
	if strings.HasPrefix(origin, "https:") {
		return "wss:" + strings.TrimPrefix(origin, "https:") + EndpointPath
	}
	if strings.HasPrefix(origin, "http:") {
		return "ws:" + strings.TrimPrefix(origin, "http:") + EndpointPath
	}
	return origin + EndpointPath
}

var closeCodeText = map[int]string{
	1000: "normal closure",
	1001: "endpoint is going away",
	1002: "protocol error",
	1003: "unacceptable data type",
	1004: "reserved",
	1005: "no status code present",
	1006: "closed abnormally, without a close control frame",
	1007: "message data inconsistent with message type",
	1008: "policy violation",
	1009: "message too big",
	1010: "expected extension not negotiated",
	1011: "unexpected server condition",
	1015: "TLS handshake failure",
}

// CloseCodeText renders a websocket close code as human-readable text.
func CloseCodeText(code int) string {
	if text, ok := closeCodeText[code]; ok {
		return fmt.Sprintf("%d (%s)", code, text)
	}
	return fmt.Sprintf("unknown close code %d", code)
}
