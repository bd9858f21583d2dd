package session

import (
	"bytes"
	"compress/zlib"
	"strings"

	"mudengine/internal/mudcode"
)

// outputPipeline is the C2 output path (spec.md §4.2): handlers append
// logical text to a staging buffer; on flush it is wrapped, color-
// rendered, MXP-encoded, optionally compressed, and appended to the
// kernel-bound buffer the owner drains to the socket.
type outputPipeline struct {
	staging strings.Builder

	kernelBound bytes.Buffer // bytes ready to write to the socket

	compressing bool
	zw          *zlib.Writer
}

// Append queues text for the next Flush. It does not itself check
// backpressure — Session.Write is the backpressure-aware entry point
// handlers call.
func (p *outputPipeline) Append(text string) {
	p.staging.WriteString(text)
}

// enableCompression starts wrapping the output path in a zlib stream from
// this point forward (spec.md §4.2: "Input is never compressed").
func (p *outputPipeline) enableCompression() {
	if p.compressing {
		return
	}
	p.compressing = true
	p.zw = zlib.NewWriter(&p.kernelBound)
}

// disableCompression tears the compression stream down on a byte boundary
// by flushing and closing it, per spec.md §4.2.
func (p *outputPipeline) disableCompression() {
	if !p.compressing {
		return
	}
	_ = p.zw.Close()
	p.zw = nil
	p.compressing = false
}

// flush renders the staged text through wrap/color/MXP/compress and
// appends the result to the kernel-bound buffer, per spec.md §4.2's
// five-step output pipeline.
func (p *outputPipeline) flush(opts Options) {
	if p.staging.Len() == 0 {
		return
	}
	text := p.staging.String()
	p.staging.Reset()

	text = wrapText(text, opts.WrapWidth)
	text = renderColor(text, opts.ColorOn)
	text = renderMXP(text, opts.MXPOn)

	if p.compressing && p.zw != nil {
		_, _ = p.zw.Write([]byte(text))
		_ = p.zw.Flush()
	} else {
		p.kernelBound.WriteString(text)
	}
}

// drain returns and clears the bytes ready to write to the socket.
func (p *outputPipeline) drain() []byte {
	out := p.kernelBound.Bytes()
	cp := make([]byte, len(out))
	copy(cp, out)
	p.kernelBound.Reset()
	return cp
}

// pending reports how many bytes are queued in the kernel-bound buffer,
// the figure Session checks against its high-water mark.
func (p *outputPipeline) pending() int {
	return p.kernelBound.Len()
}

// wrapText wraps text to width columns on word boundaries, preserving
// existing line breaks. width <= 0 disables wrapping.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\r\n")
	for li, line := range lines {
		lines[li] = wrapLine(line, width)
	}
	return strings.Join(lines, "\r\n")
}

func wrapLine(line string, width int) string {
	if len(line) <= width {
		return line
	}
	words := strings.Split(line, " ")
	var b strings.Builder
	col := 0
	for i, w := range words {
		if col > 0 && col+1+len(w) > width {
			b.WriteString("\r\n")
			col = 0
		} else if i > 0 {
			b.WriteByte(' ')
			col++
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}

// Write queues text for output, enforcing the backpressure contract: once
// the kernel-bound buffer exceeds highWaterMark, further writes are
// rejected with a soft Overloaded error rather than dropped or blocked
// (spec.md §4.2).
func (s *Session) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backpressured {
		return mudcode.NewWithMessage(mudcode.Overloaded, "You're sending too much too fast. Slow down.", nil)
	}
	s.out.Append(text)
	return nil
}

// Flush renders staged output and drains it for the owner to write to the
// socket, updating the backpressure flag from the new buffer size.
func (s *Session) Flush() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.flush(s.opts)
	s.backpressured = s.out.pending() > s.highWaterMark
	return s.out.drain()
}

// Backpressured reports whether further Write calls are currently refused.
func (s *Session) Backpressured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backpressured
}

// ClearBackpressure lets the owner re-admit Write calls once the bytes a
// prior Flush drained have actually reached the socket.
func (s *Session) ClearBackpressure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backpressured = false
}
