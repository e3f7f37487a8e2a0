package proto

import (
	"fmt"
	"strconv"
	"strings"
)

// Request is one member of the closed command grammar.  Unparsable
// input is a Request too (Unparsed), never an error: bad lines are a
// recoverable protocol event, not a pipeline fault.
type Request interface {
	request()
}

// Exit ends the session.
type Exit struct{}

// Help asks for the usage text.
type Help struct{}

// Crash asks the session to fail on purpose.
type Crash struct{}

// Connections asks for the virtual-connection table.
type Connections struct{}

// Connect records a virtual sub-connection.
type Connect struct {
	Host string
	Port int
}

// Disconnect removes a virtual sub-connection by id.
type Disconnect struct {
	ID int
}

// Send addresses a line to a virtual sub-connection.
type Send struct {
	ID   int
	Line string
}

// Unparsed carries a frame that matched no canonical form.
type Unparsed struct {
	Raw []byte
}

func (Exit) request()        {}
func (Help) request()        {}
func (Crash) request()       {}
func (Connections) request() {}
func (Connect) request()     {}
func (Disconnect) request()  {}
func (Send) request()        {}
func (Unparsed) request()    {}

// ── Decoding ─────────────────────────────────────────────────────────

// Decode maps a frame to its Request.  It is total: only an exact
// match of one canonical form yields that variant, everything else
// (extra characters, unknown keywords, malformed arguments) yields
// Unparsed.
func Decode(frame []byte) Request {
	line := string(frame)
	switch line {
	case "Exit":
		return Exit{}
	case "Help":
		return Help{}
	case "Crash":
		return Crash{}
	case "Connections":
		return Connections{}
	}

	if rest, ok := strings.CutPrefix(line, "Connect "); ok {
		if host, port, ok := parseHostPort(rest); ok {
			return Connect{Host: host, Port: port}
		}
		return Unparsed{Raw: frame}
	}
	if rest, ok := strings.CutPrefix(line, "Disconnect "); ok {
		if id, ok := parseID(rest); ok {
			return Disconnect{ID: id}
		}
		return Unparsed{Raw: frame}
	}
	if rest, ok := strings.CutPrefix(line, "Send "); ok {
		if id, text, ok := parseIDLine(rest); ok {
			return Send{ID: id, Line: text}
		}
		return Unparsed{Raw: frame}
	}
	return Unparsed{Raw: frame}
}

// parseHostPort matches `"host" port` exactly.
func parseHostPort(s string) (string, int, bool) {
	host, rest, ok := parseQuoted(s)
	if !ok || !strings.HasPrefix(rest, " ") {
		return "", 0, false
	}
	port, ok := parsePort(rest[1:])
	if !ok {
		return "", 0, false
	}
	return host, port, true
}

// parseID matches a bare positive integer covering the whole string.
func parseID(s string) (int, bool) {
	id, ok := parseInt(s)
	if !ok || id < 1 {
		return 0, false
	}
	return id, true
}

// parseIDLine matches `id "line"` exactly.  The line is taken verbatim
// between the outermost quotes.
func parseIDLine(s string) (int, string, bool) {
	idStr, rest, ok := strings.Cut(s, " ")
	if !ok {
		return 0, "", false
	}
	id, ok := parseID(idStr)
	if !ok {
		return 0, "", false
	}
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return 0, "", false
	}
	return id, rest[1 : len(rest)-1], true
}

// parseQuoted consumes a leading `"host"` with no quotes inside and
// returns the remainder.
func parseQuoted(s string) (string, string, bool) {
	if len(s) < 2 || s[0] != '"' {
		return "", "", false
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", "", false
	}
	return s[1 : 1+end], s[2+end:], true
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	// Reject signs, spaces and leading zeros that Atoi would accept
	// as aliases of the canonical rendering.
	if s != strconv.Itoa(mustAtoi(s)) {
		return 0, false
	}
	return mustAtoi(s), true
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func parsePort(s string) (int, bool) {
	n, ok := parseInt(s)
	if !ok || n < 1 || n > 65535 {
		return 0, false
	}
	return n, true
}

// ── Encoding ─────────────────────────────────────────────────────────

// Encode renders the canonical textual form of a request, the exact
// inverse of Decode for every variant except Unparsed (which renders
// its raw bytes unchanged).
func Encode(req Request) string {
	switch r := req.(type) {
	case Exit:
		return "Exit"
	case Help:
		return "Help"
	case Crash:
		return "Crash"
	case Connections:
		return "Connections"
	case Connect:
		// Quotes are literal, not escaped: the decoder reads the host
		// verbatim between them.
		return fmt.Sprintf(`Connect "%s" %d`, r.Host, r.Port)
	case Disconnect:
		return fmt.Sprintf("Disconnect %d", r.ID)
	case Send:
		return fmt.Sprintf(`Send %d "%s"`, r.ID, r.Line)
	case Unparsed:
		return string(r.Raw)
	default:
		return ""
	}
}
