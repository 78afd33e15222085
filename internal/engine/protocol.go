package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NoAnswer is the engine's designated "no answer" sentinel. A reply carrying
// it is suppressed even when the found flag is set.
const NoAnswer = "*NOTHING*"

const (
	cmdIdentify = ".DR identify"
	cmdPersona  = ".RN "
	cmdQuery    = ".DR "
)

// Codec speaks the engine's line-terminated text protocol over any
// io.ReadWriter, so tests can drive it with an in-memory transport.
type Codec struct {
	r *bufio.Reader
	w io.Writer
}

func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{r: bufio.NewReader(rw), w: rw}
}

// ReadLine reads one line, stripping the terminator.
func (c *Codec) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read line: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine writes one terminated line.
func (c *Codec) WriteLine(s string) error {
	if _, err := io.WriteString(c.w, s+"\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Login performs the fixed two-step credential exchange: await the banner,
// send the username, await the prompt, send the password, await the prompt.
func (c *Codec) Login(username, password string) error {
	if _, err := c.ReadLine(); err != nil {
		return err
	}
	if err := c.WriteLine(username); err != nil {
		return err
	}
	if _, err := c.ReadLine(); err != nil {
		return err
	}
	if err := c.WriteLine(password); err != nil {
		return err
	}
	if _, err := c.ReadLine(); err != nil {
		return err
	}
	return nil
}

// Identify issues the priming command and returns the engine's current
// default persona name, captured from the second reply line.
func (c *Codec) Identify() (string, error) {
	if err := c.WriteLine(cmdIdentify); err != nil {
		return "", err
	}
	if _, err := c.ReadLine(); err != nil {
		return "", err
	}
	line, err := c.ReadLine()
	if err != nil {
		return "", err
	}
	return extractPersona(line), nil
}

// SwitchPersona sends a persona-switch command and consumes its single reply
// line.
func (c *Codec) SwitchPersona(name string) error {
	if err := c.WriteLine(cmdPersona + name); err != nil {
		return err
	}
	_, err := c.ReadLine()
	return err
}

// QueryReply is the parsed outcome of one query exchange.
type QueryReply struct {
	Found   bool
	Text    string
	Persona string // engine's default persona after the exchange
}

// Query sends one query command carrying the author handle, the engine's
// current default persona and the message text, then consumes the reply line
// and the trailing persona line. All exchanges are synchronous and strictly
// ordered.
func (c *Codec) Query(author, persona, text string) (QueryReply, error) {
	author = strings.ReplaceAll(author, " ", "_")
	if err := c.WriteLine(cmdQuery + author + " " + persona + " " + text); err != nil {
		return QueryReply{}, err
	}

	line, err := c.ReadLine()
	if err != nil {
		return QueryReply{}, err
	}
	found, replyText := parseReply(line)

	personaLine, err := c.ReadLine()
	if err != nil {
		return QueryReply{}, err
	}

	return QueryReply{
		Found:   found,
		Text:    replyText,
		Persona: extractPersona(personaLine),
	}, nil
}

// parseReply splits a reply line of the form "<found-flag> <free text>".
func parseReply(line string) (bool, string) {
	flag, rest, _ := strings.Cut(line, " ")
	return flag == "1", strings.TrimSpace(rest)
}

// extractPersona pulls the persona name out of an engine state dump line of
// the form "... nick => '<name>' ...". Returns "" when absent.
func extractPersona(line string) string {
	const marker = "nick => '"
	start := strings.Index(line, marker)
	if start < 0 {
		return ""
	}
	rest := line[start+len(marker):]
	end := strings.IndexByte(rest, '\'')
	if end < 0 {
		return ""
	}
	return rest[:end]
}
