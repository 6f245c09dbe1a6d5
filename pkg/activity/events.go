package activity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// BackupReport describes the outcome of one backup run.
type BackupReport struct {
	FileName    string
	BackupType  string
	Collections int
	Documents   int
	SizeBytes   int64
	Rotated     int
	Duration    time.Duration
	Err         error
}

// RestoreReport describes the outcome of one restore.
type RestoreReport struct {
	FileName    string
	Actor       string
	Collections int
	Documents   int
	Skipped     []string
	Duration    time.Duration
	Err         error
}

// LogLogin records a login attempt.
func (l *Logger) LogLogin(username string, success bool, rc *RequestContext) {
	result := "✅ Success"
	if !success {
		result = "❌ Failed"
	}
	l.LogEvent(KindLogin, []Field{
		{Name: "User", Value: username, Inline: true},
		{Name: "Result", Value: result, Inline: true},
	}, rc)
}

// LogLogout records a logout.
func (l *Logger) LogLogout(username string, rc *RequestContext) {
	l.LogEvent(KindLogout, []Field{
		{Name: "User", Value: username, Inline: true},
	}, rc)
}

// LogRegistration records a new account.
func (l *Logger) LogRegistration(username, email string, rc *RequestContext) {
	l.LogEvent(KindRegistration, []Field{
		{Name: "User", Value: username, Inline: true},
		{Name: "Email", Value: MaskEmail(email), Inline: true},
	}, rc)
}

// LogFormSubmission records a submitted form and the points it awarded.
func (l *Logger) LogFormSubmission(username, form string, points int, rc *RequestContext) {
	l.LogEvent(KindFormSubmission, []Field{
		{Name: "User", Value: username, Inline: true},
		{Name: "Form", Value: form, Inline: true},
		{Name: "Points Awarded", Value: strconv.Itoa(points), Inline: true},
	}, rc)
}

// LogPointsChange records a change to a user's point balance.
func (l *Logger) LogPointsChange(username string, delta, total int, reason, actor string, rc *RequestContext) {
	l.LogEvent(KindPointsChange, []Field{
		{Name: "User", Value: username, Inline: true},
		{Name: "Change", Value: fmt.Sprintf("%+d", delta), Inline: true},
		{Name: "New Total", Value: strconv.Itoa(total), Inline: true},
		{Name: "Reason", Value: reason},
		{Name: "By", Value: actor, Inline: true},
	}, rc)
}

// LogBan records a ban. A nil until means the ban is permanent.
func (l *Logger) LogBan(admin, target, reason string, until *time.Time, rc *RequestContext) {
	expires := "Permanent"
	if until != nil {
		expires = until.UTC().Format(time.RFC3339)
	}
	l.LogEvent(KindBan, []Field{
		{Name: "Admin", Value: admin, Inline: true},
		{Name: "Target", Value: target, Inline: true},
		{Name: "Expires", Value: expires, Inline: true},
		{Name: "Reason", Value: reason},
	}, rc)
}

// LogUnban records a lifted ban.
func (l *Logger) LogUnban(admin, target string, rc *RequestContext) {
	l.LogEvent(KindUnban, []Field{
		{Name: "Admin", Value: admin, Inline: true},
		{Name: "Target", Value: target, Inline: true},
	}, rc)
}

// LogAdminAction records any other administrative action.
func (l *Logger) LogAdminAction(admin, action, details string, rc *RequestContext) {
	l.LogEvent(KindAdminAction, []Field{
		{Name: "Admin", Value: admin, Inline: true},
		{Name: "Action", Value: action, Inline: true},
		{Name: "Details", Value: details},
	}, rc)
}

// LogError records an error raised at where.
func (l *Logger) LogError(err error, where string, rc *RequestContext) {
	msg := NotAvailable
	if err != nil {
		msg = err.Error()
	}
	l.LogEvent(KindError, []Field{
		{Name: "Location", Value: where, Inline: true},
		{Name: "Error", Value: codeBlock("", msg)},
	}, rc)
}

// LogDeletionAudit mirrors a deletion audit entry.
func (l *Logger) LogDeletionAudit(actor, targetType, targetID, reason, snapshot string) {
	l.LogEvent(KindDeletionAudit, []Field{
		{Name: "Actor", Value: actor, Inline: true},
		{Name: "Type", Value: targetType, Inline: true},
		{Name: "ID", Value: targetID, Inline: true},
		{Name: "Reason", Value: reason, Inline: true},
		{Name: "Snapshot", Value: codeBlock("json", snapshot)},
	}, nil)
}

// LogBackup records a backup outcome.
func (l *Logger) LogBackup(r BackupReport) {
	if r.Err != nil {
		l.LogEvent(KindBackupFailed, []Field{
			{Name: "Type", Value: r.BackupType, Inline: true},
			{Name: "Duration", Value: formatDuration(r.Duration), Inline: true},
			{Name: "Error", Value: codeBlock("", r.Err.Error())},
		}, nil)
		return
	}
	l.LogEvent(KindBackup, []Field{
		{Name: "File", Value: r.FileName},
		{Name: "Type", Value: r.BackupType, Inline: true},
		{Name: "Collections", Value: strconv.Itoa(r.Collections), Inline: true},
		{Name: "Documents", Value: strconv.Itoa(r.Documents), Inline: true},
		{Name: "Size", Value: humanize.Bytes(uint64(max(r.SizeBytes, 0))), Inline: true},
		{Name: "Rotated", Value: strconv.Itoa(r.Rotated), Inline: true},
		{Name: "Duration", Value: formatDuration(r.Duration), Inline: true},
	}, nil)
}

// LogRestore records a restore outcome.
func (l *Logger) LogRestore(r RestoreReport) {
	if r.Err != nil {
		l.LogEvent(KindRestoreFailed, []Field{
			{Name: "File", Value: r.FileName},
			{Name: "By", Value: r.Actor, Inline: true},
			{Name: "Error", Value: codeBlock("", r.Err.Error())},
		}, nil)
		return
	}
	fields := []Field{
		{Name: "File", Value: r.FileName},
		{Name: "By", Value: r.Actor, Inline: true},
		{Name: "Collections", Value: strconv.Itoa(r.Collections), Inline: true},
		{Name: "Documents", Value: strconv.Itoa(r.Documents), Inline: true},
		{Name: "Duration", Value: formatDuration(r.Duration), Inline: true},
	}
	if len(r.Skipped) > 0 {
		fields = append(fields, Field{Name: "Skipped", Value: strings.Join(r.Skipped, ", ")})
	}
	l.LogEvent(KindRestore, fields, nil)
}

// LogCleanupSummary records per-class deletion counts of a retention run.
func (l *Logger) LogCleanupSummary(counts map[string]int) {
	classes := make([]string, 0, len(counts))
	total := 0
	for class, n := range counts {
		classes = append(classes, class)
		total += n
	}
	sort.Strings(classes)

	fields := make([]Field, 0, len(classes)+1)
	for _, class := range classes {
		fields = append(fields, Field{Name: class, Value: strconv.Itoa(counts[class]), Inline: true})
	}
	fields = append(fields, Field{Name: "Total", Value: strconv.Itoa(total), Inline: true})
	l.LogEvent(KindCleanup, fields, nil)
}

// LogVerificationCode records that a verification code was issued.
func (l *Logger) LogVerificationCode(email, purpose string, rc *RequestContext) {
	l.LogEvent(KindVerificationCode, []Field{
		{Name: "Email", Value: MaskEmail(email), Inline: true},
		{Name: "Purpose", Value: purpose, Inline: true},
	}, rc)
}

// MaskEmail keeps the first two characters of the local part.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	runes := []rune(local)
	keep := min(2, len(runes))
	return string(runes[:keep]) + "***@" + domain
}

// codeBlock fences v, leaving room for the fence within the field limit.
func codeBlock(lang, v string) string {
	if v == "" {
		return NotAvailable
	}
	fence := "```" + lang + "\n"
	room := MaxFieldValueLength - len(fence) - len("\n```")
	return fence + truncate(v, room) + "\n```"
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return NotAvailable
	}
	return d.Round(time.Millisecond).String()
}
