package types

import (
	"time"
)

// SetOptions controls a single write.
type SetOptions struct {
	// Meta holds user-defined metadata attached to the object.
	Meta map[string]string `json:"meta,omitempty"`

	// HasBody reports whether the value is sent as the object body.
	// nil means true; an explicit false writes a zero-length marker object.
	HasBody *bool `json:"has_body,omitempty"`
}

// SendsBody resolves HasBody to its effective value.
func (o SetOptions) SendsBody() bool {
	return o.HasBody == nil || *o.HasBody
}

// RemoveOptions controls a single delete.
type RemoveOptions struct {
	// VersionID targets a specific object version (requires bucket versioning).
	VersionID string `json:"version_id,omitempty"`
}

// Meta describes a stored item without its body.
type Meta struct {
	MTime       time.Time         `json:"mtime"`
	Size        int64             `json:"size"`
	ETag        string            `json:"etag,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	User        map[string]string `json:"user,omitempty"`
}
