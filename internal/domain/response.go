package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TokenError       = "Error"
	TokenRateLimited = "RateLimited"
	TokenBusy        = "Busy"
)

type EntryKind string

const (
	EntryText       EntryKind = "text"
	EntryAttachment EntryKind = "attachment"
)

type ResponseEntry struct {
	Sender  Sender       `json:"sender"`
	Content string       `json:"content"`
	Kind    EntryKind    `json:"kind"`
	Status  ResultStatus `json:"status"`
	// Attachment is carried for structured output; the wire form only keeps
	// the reference token in Content.
	Attachment *Attachment `json:"-"`
}

// Response is exactly one outbound message per processed request: either a
// failure token or the ordered list of entries.
type Response struct {
	Token   string
	Entries []ResponseEntry
}

func TokenResponse(token string) Response {
	return Response{Token: token}
}

func EntriesResponse(entries []ResponseEntry) Response {
	copied := make([]ResponseEntry, len(entries))
	copy(copied, entries)
	return Response{Entries: copied}
}

func (r Response) IsToken() bool {
	return r.Token != ""
}

func EntryFromResult(result WorkerResult) ResponseEntry {
	entry := ResponseEntry{
		Sender:  SenderForAgent(result.Agent),
		Content: result.Output.String(),
		Kind:    EntryText,
		Status:  result.Status,
	}
	if result.Output.Attachment != nil {
		entry.Kind = EntryAttachment
		attachment := *result.Output.Attachment
		entry.Attachment = &attachment
	}
	if entry.Status == "" {
		entry.Status = StatusOK
	}
	return entry
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Token != "" {
		return json.Marshal(r.Token)
	}

	entries := r.Entries
	if entries == nil {
		entries = []ResponseEntry{}
	}
	return json.Marshal(entries)
}

var errEmptyResponse = errors.New("empty response payload")

func (r *Response) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return errEmptyResponse
	}

	switch data[0] {
	case '"':
		var token string
		if err := json.Unmarshal(data, &token); err != nil {
			return fmt.Errorf("decode response token: %w", err)
		}
		*r = Response{Token: token}
		return nil
	case '[':
		var entries []ResponseEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("decode response entries: %w", err)
		}
		*r = Response{Entries: entries}
		return nil
	default:
		return fmt.Errorf("decode response: unexpected payload %q", string(data[:1]))
	}
}
