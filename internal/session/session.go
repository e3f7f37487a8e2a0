// Package session implements the per-connection interpreter: a state
// machine that executes decoded requests against a table of virtual
// sub-connections and emits the response lines of the wire protocol.
//
// One Session belongs to exactly one accepted connection and is only
// ever touched by that connection's pipeline goroutine, so the table
// needs no locking.
package session

import (
	"fmt"
	"strings"

	"linecat/internal/errors"
	"linecat/internal/metrics"
	"linecat/internal/proto"
	"linecat/util"
)

// Record is one virtual sub-connection: bookkeeping only, no real
// outbound socket is opened for it.
type Record struct {
	ID   int
	Host string
	Port int
}

// Session holds the mutable state of one accepted connection.
type Session struct {
	peer    string
	records []Record // most-recently-added first
	log     *util.PeerLogger
	stats   *metrics.Collector
}

// New creates the session for a connection from peer.
func New(peer string, logger *util.Logger, stats *metrics.Collector) *Session {
	return &Session{
		peer:  peer,
		log:   logger.Peer(peer),
		stats: stats,
	}
}

// ── Response rendering ───────────────────────────────────────────────

const (
	welcomeFormat = "Welcome to the non-magical TCP client, %s."
	badRequest    = "Bad request. See HELP for usage instructions."
	farewell      = "Bye."
	listingHeader = "Connections [(ID, (IPv4, PORT-NUMBER))]:"
)

var usageLines = []string{
	"Available commands:",
	`  Help                  -- this text`,
	`  Connect "host" port   -- record a virtual connection`,
	`  Disconnect id         -- drop a virtual connection`,
	`  Connections           -- list virtual connections`,
	`  Send id "line"        -- address a line to a virtual connection`,
	`  Exit                  -- end the session`,
	`  Crash                 -- terminate the session abnormally`,
}

// respond renders one wire line: prefixed, CRLF-terminated, framed
// exactly like the requests the framer strips.
func respond(text string) []byte {
	return []byte("| " + text + "\r\n")
}

// Greeting returns the lines sent as soon as a connection is accepted:
// the welcome followed by the usage text.
func (s *Session) Greeting() [][]byte {
	lines := [][]byte{respond(fmt.Sprintf(welcomeFormat, s.peer))}
	return append(lines, usage()...)
}

func usage() [][]byte {
	out := make([][]byte, 0, len(usageLines))
	for _, l := range usageLines {
		out = append(out, respond(l))
	}
	return out
}

// renderTable shows the table in order, in the listing's tuple shape.
func renderTable(records []Record) string {
	if len(records) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, fmt.Sprintf(`(%d,("%s",%d))`, r.ID, r.Host, r.Port))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ── Table operations ─────────────────────────────────────────────────

// nextID is max+1 over the live records, or 1 for an empty table.
// Deriving from the current maximum (not a counter) means removing the
// highest id and reconnecting reuses it.
func (s *Session) nextID() int {
	max := 0
	for _, r := range s.records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

func (s *Session) insert(host string, port int) Record {
	rec := Record{ID: s.nextID(), Host: host, Port: port}
	s.records = append([]Record{rec}, s.records...)
	return rec
}

// remove drops at most the one record matching id.  A missing id is a
// no-op, not an error.
func (s *Session) remove(id int) {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return
		}
	}
}

// Records returns the current table, most-recently-added first.
func (s *Session) Records() []Record { return s.records }

// ── Interpreter ──────────────────────────────────────────────────────

// Handle executes one request and returns the response lines to emit,
// whether the session is over, and a fatal error if the request
// demands one.  Response lines always come first: a Crash's warning is
// emitted before its fault terminates the pipeline.
func (s *Session) Handle(req proto.Request) (lines [][]byte, done bool, err error) {
	switch r := req.(type) {
	case proto.Unparsed:
		s.log.Verbose("unparsable request: %q", string(r.Raw))
		return [][]byte{respond(badRequest)}, false, nil

	case proto.Help:
		return usage(), false, nil

	case proto.Exit:
		s.log.Verbose("session exit requested")
		return [][]byte{respond(farewell)}, true, nil

	case proto.Crash:
		s.stats.RecordFailure("crash requested")
		return [][]byte{respond("Crashing this session.")}, true,
			&errors.ProtocolFault{Peer: s.peer, Reason: "crash requested"}

	case proto.Connect:
		rec := s.insert(r.Host, r.Port)
		s.log.Verbose("virtual connection %d -> %s:%d", rec.ID, rec.Host, rec.Port)
		return [][]byte{respond(fmt.Sprintf(`Connected to "%s" %d with id %d.`, rec.Host, rec.Port, rec.ID))}, false, nil

	case proto.Disconnect:
		s.remove(r.ID)
		return [][]byte{respond(fmt.Sprintf("Disconnected %d.", r.ID))}, false, nil

	case proto.Connections:
		return [][]byte{
			respond(listingHeader),
			respond("  " + renderTable(s.records)),
		}, false, nil

	case proto.Send:
		// Bookkeeping only: nothing is forwarded anywhere.
		return [][]byte{respond(fmt.Sprintf("Sent line to connection %d.", r.ID))}, false, nil

	default:
		return [][]byte{respond(badRequest)}, false, nil
	}
}
