package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/retention"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "validation", err: fmt.Errorf("load: %w", config.ValidationError{Errors: []config.FieldError{{Field: "backup.hour"}}}), want: ExitConfig},
		{name: "locked", err: NewCommandError("cleanup", lock.ErrLocked), want: ExitLocked},
		{name: "missing manifest", err: NewCommandError("backup restore", backup.ErrManifestNotFound), want: ExitNotFound},
		{name: "other", err: errors.New("boom"), want: ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	err := NewCommandError("backup create", lock.ErrLocked)
	if !errors.Is(err, lock.ErrLocked) {
		t.Error("CommandError does not unwrap")
	}
	if !strings.Contains(err.Error(), "backup create") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "csv", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestBackupList_Text(t *testing.T) {
	var buf bytes.Buffer
	list := BackupList{{Name: "backup_2024-06-15_02-00-00.json", Size: 2_500_000, ModTime: time.Now().Add(-2 * time.Hour)}}
	if err := NewFormatter(FormatText).FormatTo(&buf, list); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "backup_2024-06-15_02-00-00.json", "2.5 MB", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := NewFormatter(FormatText).FormatTo(&buf, BackupList{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No backups found") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestBackupList_JSON(t *testing.T) {
	var buf bytes.Buffer
	list := BackupList{{Name: "backup_2024-06-15_02-00-00.json", Size: 10}}
	if err := NewFormatter(FormatJSON).FormatTo(&buf, list); err != nil {
		t.Fatal(err)
	}
	var decoded []backup.Info
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 1 || decoded[0].Size != 10 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRetentionReport_Text(t *testing.T) {
	report := RetentionReport(retention.Report{
		Candidates: map[string]int{"orders": 2, "attempts": 0},
		Deleted:    map[string]int64{"orders": 2},
		Errors:     []error{retention.NewClassError("attempts", "find", errors.New("cursor closed"))},
	})

	var buf bytes.Buffer
	if err := NewFormatter(FormatText).FormatTo(&buf, &report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Index(out, "attempts") > strings.Index(out, "orders") {
		t.Errorf("classes not sorted:\n%s", out)
	}
	for _, want := range []string{"total", "cursor closed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBackupResult_Text(t *testing.T) {
	result := BackupResult(backup.Result{Name: "backup_x.json", Type: "manual", Documents: 12345, SizeBytes: 1024, Failed: []string{"attempts"}})
	var buf bytes.Buffer
	if err := NewFormatter(FormatText).FormatTo(&buf, &result); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"12,345", "1.0 kB", "Not captured:", "attempts"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
