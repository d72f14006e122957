package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/basel-ax/gallery/internal/service"
)

// Confirmer asks for confirmation on a line based terminal
type Confirmer struct {
	in  *bufio.Reader
	out io.Writer

	once    sync.Once
	answers chan answer
}

// NewConfirmer creates a confirmer reading answers from in and writing prompts to out
func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{
		in:      bufio.NewReader(in),
		out:     out,
		answers: make(chan answer),
	}
}

type answer struct {
	line string
	err  error
}

// readLines is the only reader of c.in. A prompt that gives up on ctx leaves
// the pending line for the next prompt. The channel is closed after EOF or a read error.
func (c *Confirmer) readLines() {
	defer close(c.answers)
	for {
		line, err := c.in.ReadString('\n')
		c.answers <- answer{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Confirm prints the prompt and waits for an answer.
// "y", "yes" or the confirm label confirm; anything else, including EOF, cancels.
func (c *Confirmer) Confirm(ctx context.Context, p service.Prompt) (bool, error) {
	if _, err := fmt.Fprint(c.out, promptText(p)); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	c.once.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-c.answers:
		if !ok {
			// input already closed
			return false, nil
		}
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("failed to read answer: %w", a.err)
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return reply == "y" || reply == "yes" || reply == strings.ToLower(p.ConfirmText), nil
	}
}

func promptText(p service.Prompt) string {
	var b strings.Builder
	b.WriteString(p.Title + "\n")
	b.WriteString(p.Message + "\n")
	if p.Destructive {
		b.WriteString("This cannot be undone.\n")
	}
	fmt.Fprintf(&b, "[%s / %s] (y/N): ", p.CancelText, p.ConfirmText)
	return b.String()
}
