package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
)

var _ migrate.Logger = migrateLogger{}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{"positive", []string{"steps", "2"}, 2, false},
		{"negative", []string{"steps", "-1"}, -1, false},
		{"missing", []string{"force"}, 0, true},
		{"not a number", []string{"force", "v3"}, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := intArg(tc.args, tc.args[0])
			if (err != nil) != tc.wantErr {
				t.Fatalf("intArg(%v) error = %v, wantErr %v", tc.args, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("intArg(%v) = %d, want %d", tc.args, got, tc.want)
			}
		})
	}
}

func TestMigrateLoggerWritesOneLinePerMessage(t *testing.T) {
	var buf bytes.Buffer
	l := migrateLogger{log: zerolog.New(&buf), verbose: true}

	l.Printf("Finished 1/u init (read %v, ran %v)\n", "1ms", "2ms")

	var entry struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if entry.Level != "info" {
		t.Errorf("level = %q, want info", entry.Level)
	}
	if want := "Finished 1/u init (read 1ms, ran 2ms)"; entry.Message != want {
		t.Errorf("message = %q, want %q", entry.Message, want)
	}
	if !l.Verbose() {
		t.Error("Verbose() = false, want true")
	}
}
