package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys set on custodian spans.
const (
	AttrRunID      = "custodian.run_id"
	AttrTrigger    = "custodian.trigger"
	AttrActor      = "custodian.actor"
	AttrClass      = "custodian.retention.class"
	AttrCollection = "custodian.collection"
	AttrCandidates = "custodian.retention.candidates"
	AttrDeleted    = "custodian.retention.deleted"
	AttrBackupName = "custodian.backup.name"
	AttrBackupType = "custodian.backup.type"
	AttrDocuments  = "custodian.backup.documents"
	AttrSizeBytes  = "custodian.backup.size_bytes"
)

// RunAttributes identifies one scheduled or manual run.
func RunAttributes(runID, trigger string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrRunID, runID)}
	if trigger != "" {
		attrs = append(attrs, attribute.String(AttrTrigger, trigger))
	}
	return attrs
}
