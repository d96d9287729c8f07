package cli

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Compiling")

	progress.Start(4)
	progress.Update(2)
	progress.Finish()

	output := buf.String()
	for _, want := range []string{"Compiling [", "50% (2/4)", "100% (4/4)"} {
		if !strings.Contains(output, want) {
			t.Errorf("progress output misses %q: %q", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Finish() should end the line")
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Compiling")

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if buf.String() != "\n" {
		t.Errorf("expected only a newline, got %q", buf.String())
	}
}

func TestSimpleProgressClampsOverflow(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Compiling")

	progress.Start(2)
	progress.Update(5)

	if !strings.Contains(buf.String(), "(2/2)") {
		t.Errorf("progress should be clamped to the total: %q", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Compiling")

	progress.Start(3)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "✗ Error: test error") {
		t.Errorf("unexpected error output %q", output)
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Compiling")
	progress.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				progress.Update(int64(start*10 + j))
			}
		}(i)
	}
	wg.Wait()
	progress.Finish()

	if !strings.Contains(buf.String(), "(100/100)") {
		t.Error("expected final progress output")
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil, "Compiling")
	if progress.(*SimpleProgress).writer == nil {
		t.Fatal("nil writer should default to stderr")
	}
}
