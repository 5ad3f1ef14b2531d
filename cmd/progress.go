package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jacklau/floatpack/internal/pipeline"
	"github.com/jacklau/floatpack/internal/pubsub"
)

// progressBar is a simple terminal progress bar.
type progressBar struct {
	total       int
	current     int
	width       int
	description string
	writer      io.Writer
}

// newProgressBar creates a new progress bar.
func newProgressBar(total int, description string, writer io.Writer) *progressBar {
	return &progressBar{
		total:       total,
		width:       30,
		description: description,
		writer:      writer,
	}
}

// Add increments the progress bar by n.
func (p *progressBar) Add(n int) {
	p.Set(p.current + n)
}

// Set moves the progress bar to n, clamped to the total.
func (p *progressBar) Set(n int) {
	p.current = min(n, p.total)
	p.render()
}

// Finish completes the progress bar and prints a newline.
func (p *progressBar) Finish() {
	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// render draws the progress bar to the writer using carriage return.
func (p *progressBar) render() {
	if p.total <= 0 {
		return
	}

	pct := float64(p.current) / float64(p.total)
	filled := min(int(pct*float64(p.width)), p.width)

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", p.width-filled)
	fmt.Fprintf(p.writer, "\r%s [%s] %d/%d", p.description, bar, p.current, p.total)
}

// trackProgress draws a progress bar from pipeline events until the job
// finishes. The returned func stops tracking and waits for the bar to settle.
func trackProgress(ctx context.Context, broker *pubsub.Broker[pipeline.Progress], w io.Writer, description string) (stop func()) {
	subCtx, cancel := context.WithCancel(ctx)
	events := broker.Subscribe(subCtx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var bar *progressBar
		for evt := range events {
			switch evt.Type {
			case pubsub.Started:
				bar = newProgressBar(evt.Payload.Total, description, w)
			case pubsub.Progress:
				if bar != nil {
					bar.Set(evt.Payload.Done)
				}
			case pubsub.Finished:
				if bar != nil {
					bar.Finish()
				}
				return
			}
		}
		// Cancelled or failed before Finished: end the line we drew on.
		if bar != nil && bar.total > 0 {
			fmt.Fprintln(w)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
