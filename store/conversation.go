package store

// Conversation is one completed turn: a user message and the response
// generated for it. Identity is assigned by the database on create.
type Conversation struct {
	ID        int32
	UID       string
	SessionID string
	UserID    string
	Message   string
	Response  string
	Metadata  string // JSON string
	CreatedTs int64
	UpdatedTs int64
}

type FindConversation struct {
	ID        *int32
	UID       *string
	SessionID *string
	UserID    *string
	// Limit caps the number of rows returned, newest last.
	Limit *int
}

type DeleteConversation struct {
	ID int32
}
