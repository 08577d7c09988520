package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"strings"
	"testing"
)

func TestLogWriter_FillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	writer := NewLogWriter(log.New(&buf, "", 0))
	meta, _ := json.Marshal(map[string]any{"cached": false})
	err := writer.Log(context.Background(), Entry{
		Action:     ActionReportGenerate,
		ReportDate: "2024-05-01",
		Format:     "pdf",
		Rows:       3,
		Metadata:   meta,
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "action=report.generate") || !strings.Contains(out, "rows=3") {
		t.Fatalf("unexpected audit line: %q", out)
	}
	if !strings.Contains(out, "digest="+DigestJSON(meta)) {
		t.Fatalf("expected metadata digest in %q", out)
	}
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b || !strings.HasPrefix(a, "audit-") {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}
