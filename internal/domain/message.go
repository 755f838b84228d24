package domain

import "time"

type Message struct {
	Sender  Sender
	Role    Role
	Content Payload
}

// Payload is either narrative text or a structured attachment, never both.
type Payload struct {
	Text       string
	Attachment *Attachment
}

type AttachmentKind string

const AttachmentPlot AttachmentKind = "plot"

// Attachment is structured worker output. Ref is the stable token clients
// use to fetch or name the rendered artifact.
type Attachment struct {
	Kind    AttachmentKind
	Ref     string
	Caption string
	Series  []Series
}

type Series struct {
	Label  string
	Points []Point
}

type Point struct {
	Date  time.Time
	Value float64
}

func TextPayload(text string) Payload {
	return Payload{Text: text}
}

func AttachmentPayload(attachment Attachment) Payload {
	return Payload{Attachment: &attachment}
}

func (p Payload) IsStructured() bool {
	return p.Attachment != nil
}

// String returns the text shown for the payload: the text itself or the
// attachment reference token.
func (p Payload) String() string {
	if p.Attachment != nil {
		return p.Attachment.Ref
	}
	return p.Text
}

func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Role: RoleUser, Content: TextPayload(text)}
}

func AgentMessage(id AgentID, content Payload) Message {
	return Message{Sender: SenderForAgent(id), Role: RoleAssistant, Content: content}
}

func SupervisorMessage(text string) Message {
	return Message{Sender: SenderSupervisor, Role: RoleAssistant, Content: TextPayload(text)}
}
