package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/response"
	"github.com/muesli/termenv"
)

// ColorMode selects when output is coloured.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode maps a config or flag value to a ColorMode. Empty means auto.
func ParseColorMode(raw string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", raw)
	}
}

const indent = "  "

// Reporter prints response status lines and outcome messages. Status lines
// and success messages go to stdout; failure messages and bodies go to
// stderr.
type Reporter struct {
	stdout io.Writer
	stderr io.Writer

	success lipgloss.Style
	warning lipgloss.Style
	danger  lipgloss.Style
	errOut  lipgloss.Style
}

// NewReporter builds a Reporter writing to stdout and stderr.
func NewReporter(stdout, stderr io.Writer, mode ColorMode) *Reporter {
	out := newRenderer(stdout, mode)
	errR := newRenderer(stderr, mode)
	return &Reporter{
		stdout:  stdout,
		stderr:  stderr,
		success: out.NewStyle().Foreground(lipgloss.Color("2")),
		warning: out.NewStyle().Foreground(lipgloss.Color("3")),
		danger:  out.NewStyle().Foreground(lipgloss.Color("1")),
		errOut:  errR.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func newRenderer(w io.Writer, mode ColorMode) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// Status prints the response status line coloured by its class.
func (r *Reporter) Status(resp *ipc.Response) {
	if resp == nil {
		return
	}
	style := r.danger
	switch ipc.ClassOf(resp.StatusCode) {
	case ipc.ClassSuccess:
		style = r.success
	case ipc.ClassInformational, ipc.ClassRedirection:
		style = r.warning
	}
	fmt.Fprintln(r.stdout, style.Render(statusLine(resp)))
}

// Outcome prints the table message for a classified response. A failure
// also prints the raw body so the daemon's own explanation is visible.
func (r *Reporter) Outcome(out response.Outcome) {
	if out.Success {
		if out.Message != "" {
			fmt.Fprintln(r.stdout, indent+r.success.Render(out.Message))
		}
		return
	}
	msg := out.Message
	if msg == "" {
		msg = ipc.ClassOf(out.StatusCode).String()
	}
	fmt.Fprintln(r.stderr, indent+r.errOut.Render(msg))
	if body := bytes.TrimRight(out.Body, "\r\n"); len(body) > 0 {
		fmt.Fprintln(r.stderr, indent+string(body))
	}
}

func statusLine(resp *ipc.Response) string {
	var b strings.Builder
	b.WriteString("HTTP")
	if resp.Proto != "" {
		b.WriteString("/" + resp.Proto)
	}
	fmt.Fprintf(&b, " %d", resp.StatusCode)
	if resp.Reason != "" {
		b.WriteString(" " + resp.Reason)
	}
	return b.String()
}
