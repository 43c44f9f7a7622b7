package ports

import "context"

// Secret represents a retrieved secret value
type Secret struct {
	Value    string
	Version  string
	Metadata map[string]string
}

// SecretManagerAdapter retrieves API credentials at wiring time.
// The aggregation core never sees the credential; it is injected into
// the event-source adapter before any window is processed.
type SecretManagerAdapter interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
