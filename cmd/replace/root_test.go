package replace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenExportSinkStdout(t *testing.T) {
	sink, closeSink, err := openExportSink("-")
	if err != nil {
		t.Fatalf("openExportSink failed: %v", err)
	}
	if sink != os.Stdout {
		t.Error("'-' did not select stdout")
	}
	if err := closeSink(); err != nil {
		t.Errorf("stdout closer returned %v", err)
	}
}

func TestOpenExportSinkClosePropagatesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sql")
	sink, closeSink, err := openExportSink(path)
	if err != nil {
		t.Fatalf("openExportSink failed: %v", err)
	}
	if _, err := sink.Write([]byte("UPDATE t SET c = 'v' WHERE id = 1;\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := closeSink(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// closing an already-closed file must surface the error, not swallow it
	if err := closeSink(); err == nil {
		t.Error("second close returned nil, want error")
	}
}
