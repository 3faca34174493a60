package models

// MondayWebhookRequest is the envelope Monday.com posts to the board webhook.
// On subscription Monday sends only a challenge that must be echoed back.
type MondayWebhookRequest struct {
	Challenge string       `json:"challenge,omitempty"`
	Event     *MondayEvent `json:"event,omitempty"`
}

// MondayEvent carries one board change notification
type MondayEvent struct {
	Type          string           `json:"type"`
	BoardID       int64            `json:"boardId"`
	PulseID       int64            `json:"pulseId"`
	PulseName     string           `json:"pulseName"`
	ColumnID      string           `json:"columnId"`
	ColumnType    string           `json:"columnType"`
	Value         *MondayColumnVal `json:"value,omitempty"`
	PreviousValue *MondayColumnVal `json:"previousValue,omitempty"`
}

// MondayColumnVal is the status column value inside a Monday event
type MondayColumnVal struct {
	Label *MondayLabel `json:"label,omitempty"`
}

// MondayLabel holds the human-readable status label text
type MondayLabel struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// EvolutionWebhookRequest is the envelope the WhatsApp gateway posts on
// inbound message events (messages.upsert).
type EvolutionWebhookRequest struct {
	Event    string         `json:"event"`
	Instance string         `json:"instance"`
	Data     *EvolutionData `json:"data,omitempty"`
}

// EvolutionData is the message payload of a gateway event
type EvolutionData struct {
	Key              *EvolutionKey     `json:"key,omitempty"`
	PushName         string            `json:"pushName"`
	Message          *EvolutionMessage `json:"message,omitempty"`
	MessageTimestamp int64             `json:"messageTimestamp"`
}

// EvolutionKey identifies the chat and message
type EvolutionKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// EvolutionMessage holds the message content variants we care about
type EvolutionMessage struct {
	Conversation    string                 `json:"conversation,omitempty"`
	ExtendedTextMsg map[string]interface{} `json:"extendedTextMessage,omitempty"`
}

// Text returns the plain text of the message, regardless of variant
func (m *EvolutionMessage) Text() string {
	if m == nil {
		return ""
	}
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.ExtendedTextMsg != nil {
		if t, ok := m.ExtendedTextMsg["text"].(string); ok {
			return t
		}
	}
	return ""
}
