package backend

// PartType discriminates message part payloads.
type PartType string

const (
	// PartText is a plain text part.
	PartText PartType = "text"
	// PartFile references an uploaded file by object name.
	PartFile PartType = "file"
	// PartScrapedURL references a URL whose content the backend scrapes.
	PartScrapedURL PartType = "scraped_url"
)

// Part is one unit of message content.
type Part struct {
	Type PartType `json:"type"`
	// Text is set for text parts.
	Text string `json:"text,omitempty"`
	// FileName, MimeType, ObjectName and Size describe file parts.
	FileName   string `json:"fileName,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	ObjectName string `json:"objectName,omitempty"`
	Size       int64  `json:"size,omitempty"`
	// URL is set for scraped-url parts.
	URL string `json:"url,omitempty"`
}

// TextPart builds a plain text part.
func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

// Role identifies a history message author.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// HistoryMessage is one prior turn half in the conversation history.
type HistoryMessage struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// KeySelection picks which provider key pool serves the request.
type KeySelection string

const (
	KeyFree KeySelection = "free"
	KeyPaid KeySelection = "paid"
)

// TurnRequest is the outbound body of one streaming chat turn.
type TurnRequest struct {
	History        []HistoryMessage `json:"history"`
	MessageParts   []Part           `json:"messageParts" validate:"required,min=1"`
	ChatSessionID  *int64           `json:"chatSessionId"`
	Model          string           `json:"model" validate:"required"`
	KeySelection   KeySelection     `json:"keySelection" validate:"required,oneof=free paid"`
	IsSearchActive bool             `json:"isSearchActive"`
	// ThinkingBudget is the resolved outbound reasoning value, see the
	// reasoning package. -1 means provider default.
	ThinkingBudget int    `json:"thinkingBudget"`
	IsRegeneration bool   `json:"isRegeneration"`
	SystemPrompt   string `json:"systemPrompt,omitempty"`
}

// errorBody is the JSON shape of a non-2xx backend response.
type errorBody struct {
	Error string `json:"error"`
}

// --- Collaborator payloads ---

// PersistTurnRequest saves a completed user+model turn.
type PersistTurnRequest struct {
	ChatSessionID  *int64 `json:"chatSessionId"`
	UserParts      []Part `json:"userParts"`
	ModelText      string `json:"modelText"`
	ThoughtSummary string `json:"thoughtSummary,omitempty"`
	Model          string `json:"model"`
	ThinkingBudget int    `json:"thinkingBudget"`
}

// PersistTurnResponse returns the canonical ids assigned by the backend.
type PersistTurnResponse struct {
	ChatSessionID  int64 `json:"chatSessionId"`
	UserMessageID  int64 `json:"userMessageId"`
	ModelMessageID int64 `json:"modelMessageId"`
}

// PersistUserMessageRequest saves only the user turn after the model call
// ultimately failed; the user's input is never silently dropped.
type PersistUserMessageRequest struct {
	ChatSessionID *int64 `json:"chatSessionId"`
	Parts         []Part `json:"parts"`
}

// PersistUserMessageResponse returns the ids assigned to the user message.
type PersistUserMessageResponse struct {
	ChatSessionID int64 `json:"chatSessionId"`
	MessageID     int64 `json:"messageId"`
}

// UpdateMessageRequest rewrites a stored message's parts (edit flow).
type UpdateMessageRequest struct {
	MessageID int64  `json:"messageId"`
	Parts     []Part `json:"parts"`
}

// TitleRequest asks the backend to generate a chat title.
type TitleRequest struct {
	ChatSessionID int64  `json:"chatSessionId"`
	FirstMessage  string `json:"firstMessage"`
}

// TitleResponse carries the generated title.
type TitleResponse struct {
	Title string `json:"title"`
}

// TokenCountRequest asks for the token footprint of a prospective request.
type TokenCountRequest struct {
	History      []HistoryMessage `json:"history"`
	MessageParts []Part           `json:"messageParts"`
	Model        string           `json:"model"`
}

// TokenCountResponse carries the token count.
type TokenCountResponse struct {
	Tokens int `json:"tokens"`
}

// SpeechRequest asks for text-to-speech synthesis.
type SpeechRequest struct {
	Text  string `json:"text" validate:"required"`
	Voice string `json:"voice,omitempty"`
}

// UploadResponse describes a stored upload.
type UploadResponse struct {
	ObjectName string `json:"objectName"`
	Size       int64  `json:"size"`
}
