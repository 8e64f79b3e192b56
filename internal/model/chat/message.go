package chat

// Request is the body of a chat call.
type Request struct {
	Email string `json:"email"`
	Text  string `json:"text"`
}

// Reply is what the companion answered.
type Reply struct {
	Reply  string `json:"reply"`
	Crisis bool   `json:"crisis"`
}

// Transcript is the stored conversation for one email: user messages at even
// indexes, replies at odd ones.
type Transcript struct {
	Email    string   `json:"email"`
	Messages []string `json:"messages"`
}

// Turn pairs a user message with its reply.
type Turn struct {
	User  string `json:"user"`
	Reply string `json:"reply"`
}

// Turns groups Messages into pairs. A trailing unanswered message yields a turn
// with an empty reply.
func (t Transcript) Turns() []Turn {
	turns := make([]Turn, 0, (len(t.Messages)+1)/2)
	for i := 0; i < len(t.Messages); i += 2 {
		turn := Turn{User: t.Messages[i]}
		if i+1 < len(t.Messages) {
			turn.Reply = t.Messages[i+1]
		}
		turns = append(turns, turn)
	}
	return turns
}
