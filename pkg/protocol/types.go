package protocol

import (
	"net/url"
	"strings"
)

type FrameKind string

const (
	FrameLog      FrameKind = "log"
	FrameStatus   FrameKind = "status"
	FrameComplete FrameKind = "complete"
	FrameError    FrameKind = "error"
)

// Known reports whether k is one of the four frame kinds of the job stream.
func (k FrameKind) Known() bool {
	switch k {
	case FrameLog, FrameStatus, FrameComplete, FrameError:
		return true
	}
	return false
}

// Terminal frames end the session that carried them.
func (k FrameKind) Terminal() bool {
	return k == FrameComplete || k == FrameError
}

// Severity is the display tag carried by status frames. The set is open; the
// backend may send tags the console has no special styling for.
type Severity string

const (
	SeverityPending  Severity = "pending"
	SeverityActive   Severity = "active"
	SeverityRejected Severity = "rejected"
)

type Frame struct {
	Kind    FrameKind `json:"type"`
	Message string    `json:"message,omitempty"`
	Status  Severity  `json:"status,omitempty"`
}

func LogFrame(msg string) Frame { return Frame{Kind: FrameLog, Message: msg} }

func StatusFrame(label string, sev Severity) Frame {
	return Frame{Kind: FrameStatus, Message: label, Status: sev}
}

func CompleteFrame() Frame { return Frame{Kind: FrameComplete} }

func ErrorFrame(msg string) Frame { return Frame{Kind: FrameError, Message: msg} }

// Param is one caller-supplied job trigger parameter.
type Param struct {
	Name  string
	Value string
}

// Params keeps trigger parameters in the order the caller supplied them.
type Params []Param

const (
	ParamProduct  = "product"
	ParamSupplier = "supplier"
)

// DriveParams builds the two selector parameters the GLOP driver endpoint expects.
func DriveParams(product, supplier string) Params {
	return Params{{Name: ParamProduct, Value: product}, {Name: ParamSupplier, Value: supplier}}
}

func (p Params) Get(name string) string {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value
		}
	}
	return ""
}

// Encode renders the parameters as a query string, preserving order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

func (p Params) Validate() error {
	for i, kv := range p {
		if strings.TrimSpace(kv.Name) == "" {
			return &ParamError{Index: i}
		}
	}
	return nil
}
