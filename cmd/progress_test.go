package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jacklau/floatpack/internal/pipeline"
	"github.com/jacklau/floatpack/internal/pubsub"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(10, "Testing", &buf)

	bar.Add(5)
	output := buf.String()

	if !strings.Contains(output, "Testing") {
		t.Errorf("progress bar output should contain description, got %q", output)
	}
	if !strings.Contains(output, "5/10") {
		t.Errorf("progress bar output should contain count, got %q", output)
	}
	if !strings.Contains(output, "[") || !strings.Contains(output, "]") {
		t.Errorf("progress bar output should contain brackets, got %q", output)
	}
}

func TestProgressBarFinish(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(5, "Done", &buf)

	bar.Add(3)
	bar.Finish()
	output := buf.String()

	if !strings.Contains(output, "5/5") {
		t.Errorf("finished progress bar should show total/total, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("finished progress bar should end with newline, got %q", output)
	}
}

func TestProgressBarZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(0, "Empty", &buf)

	bar.Add(1)
	bar.Finish()

	// Should not panic and should produce no output (render skips when total <= 0)
	// The Finish() call writes a newline
}

func TestProgressBarOverflow(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(5, "Overflow", &buf)

	bar.Add(10) // More than total
	output := buf.String()

	// Current should be capped at total
	if !strings.Contains(output, "5/5") {
		t.Errorf("overflowed progress bar should cap at total, got %q", output)
	}
}

func TestProgressBarRender(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(4, "Render", &buf)

	bar.Add(2) // 50%
	output := buf.String()

	// 50% of 30 width = 15 '=' characters
	equalCount := strings.Count(output, "=")
	if equalCount != 15 {
		t.Errorf("at 50%% should have 15 '=' chars, got %d in %q", equalCount, output)
	}
}

func TestProgressBarSet(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(100, "Set", &buf)

	bar.Set(40)
	bar.Set(25)
	output := buf.String()

	if !strings.HasSuffix(output, "25/100") {
		t.Errorf("Set should move to an absolute position, got %q", output)
	}
}

func TestTrackProgress(t *testing.T) {
	var buf bytes.Buffer
	broker := pubsub.NewBroker[pipeline.Progress]()

	stop := trackProgress(context.Background(), broker, &buf, "Compressing")
	broker.Publish(pubsub.Started, pipeline.Progress{Total: 10})
	broker.Publish(pubsub.Progress, pipeline.Progress{Done: 4, Total: 10})
	broker.Publish(pubsub.Finished, pipeline.Progress{Done: 10, Total: 10})
	stop()

	output := buf.String()
	if !strings.Contains(output, "Compressing") || !strings.Contains(output, "10/10") {
		t.Errorf("unexpected progress output %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("finished progress should end with newline, got %q", output)
	}
}

func TestTrackProgressStopWithoutEvents(t *testing.T) {
	var buf bytes.Buffer
	broker := pubsub.NewBroker[pipeline.Progress]()

	stop := trackProgress(context.Background(), broker, &buf, "Idle")
	stop()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	if broker.Subscribers() != 0 {
		t.Errorf("expected subscription to be released, got %d", broker.Subscribers())
	}
}
