package chat

import (
	"bufio"
	"context"
	"io"
	"strings"

	"tripnegotiator/internal/trip"
)

// StdioResponder reads one line per reply from an interactive stream.
// Reads are blocking; there is no timeout on a human reply.
type StdioResponder struct {
	r *bufio.Reader
}

func NewStdioResponder(r io.Reader) *StdioResponder {
	return &StdioResponder{r: bufio.NewReader(r)}
}

func (s *StdioResponder) Reply(_ context.Context, _ []trip.Message) (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ScriptResponder replays a fixed list of replies; for tests and dry runs.
type ScriptResponder struct {
	Replies []string
	next    int
}

func (s *ScriptResponder) Reply(_ context.Context, _ []trip.Message) (string, error) {
	if s.next >= len(s.Replies) {
		return "", io.EOF
	}
	reply := s.Replies[s.next]
	s.next++
	return reply, nil
}
