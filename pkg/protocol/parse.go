package protocol

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

type wireFrame struct {
	Type    *string `json:"type"`
	Message string  `json:"message"`
	Status  string  `json:"status"`
}

// Parse decodes one raw stream message into a Frame.
func Parse(raw []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Frame{}, &ProtocolError{Kind: ErrKindMalformedFrame, Raw: string(raw), Err: errors.New("frame is not a JSON object")}
	}

	var w wireFrame
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return Frame{}, &ProtocolError{Kind: ErrKindMalformedFrame, Raw: string(raw), Err: err}
	}
	if w.Type == nil {
		return Frame{}, &ProtocolError{Kind: ErrKindUnknownFrameType, Raw: string(raw), Err: errors.New("missing type")}
	}
	kind := FrameKind(*w.Type)
	if !kind.Known() {
		return Frame{}, &ProtocolError{Kind: ErrKindUnknownFrameType, Raw: string(raw), Err: errors.Errorf("unknown type %q", *w.Type)}
	}

	f := Frame{Kind: kind, Message: w.Message}
	if kind == FrameStatus {
		f.Status = Severity(w.Status)
	}
	return f, nil
}

func EncodeJSON(f Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "marshal frame")
	}
	return b, nil
}

// WriteSSE writes f as one server-sent event ("data: <json>" + blank line).
func WriteSSE(w io.Writer, f Frame) error {
	b, err := EncodeJSON(f)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(b)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, b...)
	buf = append(buf, '\n', '\n')
	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, "write sse frame")
	}
	return nil
}
