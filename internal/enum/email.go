package enum

// EmailSource records how a message reached ingestion.
type EmailSource string

const (
	EmailSourceWebhook    EmailSource = "webhook"
	EmailSourceQueue      EmailSource = "queue"
	EmailSourceMboxImport EmailSource = "mbox_import"
)

func (t EmailSource) String() string {
	return string(t)
}

func (t EmailSource) IsValid() bool {
	switch t {
	case EmailSourceWebhook, EmailSourceQueue, EmailSourceMboxImport:
		return true
	}
	return false
}
