package approval

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// AutoApprover resolves every request immediately with a fixed decision.
// Intended for tests and unattended runs of read-mostly toolsets.
type AutoApprover struct {
	Decision Decision
}

// Notify implements Approver.
func (a *AutoApprover) Notify(req *Request) {
	req.Decide(a.Decision)
}

// ChannelApprover delivers requests on a channel for the host
// application to resolve. If the channel is full the request is left
// pending and will expire on the gate's timeout.
type ChannelApprover struct {
	ch chan *Request
}

// NewChannelApprover creates a ChannelApprover with the given buffer.
func NewChannelApprover(buffer int) *ChannelApprover {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelApprover{ch: make(chan *Request, buffer)}
}

// Requests returns the channel the host reads pending requests from.
func (a *ChannelApprover) Requests() <-chan *Request {
	return a.ch
}

// Notify implements Approver.
func (a *ChannelApprover) Notify(req *Request) {
	select {
	case a.ch <- req:
	default:
	}
}

// ConsoleApprover prompts a human operator on a terminal. Each request
// prints the tool name and arguments and reads a y/n line; anything
// starting with "y" approves, everything else denies with the rest of
// the line as the note.
type ConsoleApprover struct {
	out io.Writer
	in  *bufio.Scanner
	mu  sync.Mutex
}

// NewConsoleApprover creates a ConsoleApprover reading decisions from in
// and prompting on out.
func NewConsoleApprover(in io.Reader, out io.Writer) *ConsoleApprover {
	return &ConsoleApprover{
		out: out,
		in:  bufio.NewScanner(in),
	}
}

// Notify implements Approver. The prompt runs in its own goroutine so
// notification never blocks the gate.
func (a *ConsoleApprover) Notify(req *Request) {
	go a.prompt(req)
}

func (a *ConsoleApprover) prompt(req *Request) {
	// One prompt at a time; concurrent requests queue on the mutex.
	a.mu.Lock()
	defer a.mu.Unlock()

	if req.Status() != StatusPending {
		return
	}

	header := color.New(color.FgYellow, color.Bold)
	header.Fprintf(a.out, "\nApproval required: %s\n", req.Call.Name)
	if req.Call.Caller != "" {
		fmt.Fprintf(a.out, "  requested by: %s\n", req.Call.Caller)
	}
	for _, key := range sortedKeys(req.Call.Arguments) {
		fmt.Fprintf(a.out, "  %s: %v\n", key, req.Call.Arguments[key])
	}
	fmt.Fprintf(a.out, "Approve? [y/N] ")

	if !a.in.Scan() {
		req.Deny("operator input closed")
		return
	}
	line := strings.TrimSpace(a.in.Text())

	if strings.HasPrefix(strings.ToLower(line), "y") {
		color.New(color.FgGreen).Fprintln(a.out, "approved")
		req.Approve("")
		return
	}
	color.New(color.FgRed).Fprintln(a.out, "denied")
	req.Deny(strings.TrimPrefix(line, "n"))
}

func sortedKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
