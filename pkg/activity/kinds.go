package activity

// Kind identifies the type of an activity event.
type Kind string

// Event kinds.
const (
	KindLogin            Kind = "login"
	KindLogout           Kind = "logout"
	KindRegistration     Kind = "registration"
	KindFormSubmission   Kind = "form_submission"
	KindPointsChange     Kind = "points_change"
	KindBan              Kind = "ban"
	KindUnban            Kind = "unban"
	KindAdminAction      Kind = "admin_action"
	KindError            Kind = "error"
	KindDeletionAudit    Kind = "deletion_audit"
	KindBackup           Kind = "backup"
	KindBackupFailed     Kind = "backup_failed"
	KindRestore          Kind = "restore"
	KindRestoreFailed    Kind = "restore_failed"
	KindCleanup          Kind = "cleanup"
	KindVerificationCode Kind = "verification_code"
)

// Style is the presentation of an event kind.
type Style struct {
	Color int
	Emoji string
	Label string
}

// neutralStyle is used for kinds without an entry in styles.
var neutralStyle = Style{Color: 0x808080, Emoji: "ℹ️"}

var styles = map[Kind]Style{
	KindLogin:            {Color: 0x3498DB, Emoji: "🔐", Label: "User Login"},
	KindLogout:           {Color: 0x95A5A6, Emoji: "🚪", Label: "User Logout"},
	KindRegistration:     {Color: 0x2ECC71, Emoji: "🆕", Label: "User Registration"},
	KindFormSubmission:   {Color: 0x9B59B6, Emoji: "📝", Label: "Form Submission"},
	KindPointsChange:     {Color: 0xF1C40F, Emoji: "💰", Label: "Points Changed"},
	KindBan:              {Color: 0xE74C3C, Emoji: "🔨", Label: "User Banned"},
	KindUnban:            {Color: 0x1ABC9C, Emoji: "🕊️", Label: "User Unbanned"},
	KindAdminAction:      {Color: 0xE67E22, Emoji: "🛡️", Label: "Admin Action"},
	KindError:            {Color: 0xC0392B, Emoji: "❌", Label: "Error"},
	KindDeletionAudit:    {Color: 0x992D22, Emoji: "🗑️", Label: "Record Deleted"},
	KindBackup:           {Color: 0x27AE60, Emoji: "💾", Label: "Backup Completed"},
	KindBackupFailed:     {Color: 0xC0392B, Emoji: "💾", Label: "Backup Failed"},
	KindRestore:          {Color: 0x2980B9, Emoji: "♻️", Label: "Restore Completed"},
	KindRestoreFailed:    {Color: 0xC0392B, Emoji: "♻️", Label: "Restore Failed"},
	KindCleanup:          {Color: 0x7F8C8D, Emoji: "🧹", Label: "Scheduled Cleanup"},
	KindVerificationCode: {Color: 0x8E44AD, Emoji: "📧", Label: "Verification Code Issued"},
}

// StyleOf returns the style for kind, falling back to a neutral gray style
// labelled with the raw kind.
func StyleOf(kind Kind) Style {
	if s, ok := styles[kind]; ok {
		return s
	}
	s := neutralStyle
	s.Label = string(kind)
	if s.Label == "" {
		s.Label = "Activity"
	}
	return s
}
