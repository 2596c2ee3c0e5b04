package sealfile

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestLogger_Levels(t *testing.T) {
	l := NewLogger(uint32(log.InfoLevel))
	buf := new(bytes.Buffer)
	l.SetWriter(buf)

	if l.Writer() != buf {
		t.Fatal("Writer() did not return the writer set")
	}

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.WithField("op", "encrypt").Warnf("with field")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("info message missing: %q", out)
	}
	if !strings.Contains(out, "op=encrypt") {
		t.Errorf("field missing: %q", out)
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Errorf("nothing %s", "here")
	l.WithField("k", "v").Infof("still nothing")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"debug", uint32(log.DebugLevel), false},
		{"INFO", uint32(log.InfoLevel), false},
		{"warn", uint32(log.WarnLevel), false},
		{"error", uint32(log.ErrorLevel), false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPipeline_NeverLogsPassword(t *testing.T) {
	l := NewLogger(uint32(log.DebugLevel))
	buf := new(bytes.Buffer)
	l.SetWriter(buf)

	p := newTestPipeline(t, WithLogger(l))

	container, err := p.Encrypt("n.txt", []byte("data"), "s3cr3t-pw")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, _, err := p.Decrypt(container, "wr0ng-pw"); err == nil {
		t.Fatal("Decrypt with wrong password succeeded")
	}

	out := buf.String()
	if out == "" {
		t.Fatal("nothing logged at debug level")
	}
	if strings.Contains(out, "s3cr3t-pw") || strings.Contains(out, "wr0ng-pw") {
		t.Errorf("password leaked into log output: %q", out)
	}
}
