// Package reply produces the scripted replies returned by the chat endpoint.
package reply

// GenericReply acknowledges the user without changing the subject.
const GenericReply = "I remember what you’ve shared earlier. " +
	"You’re not starting over here. " +
	"What feels most present for you right now?"

// CrisisReply points the user at immediate human support.
const CrisisReply = "I’m really glad you told me this. I’m sorry you’re feeling so much pain. 💙\n\n" +
	"I’m not able to help with anything that could hurt you, but I *do* want to help you stay safe.\n\n" +
	"If you’re in immediate danger, please contact your local emergency number right now.\n\n" +
	"You deserve support from a real person who can be with you in this moment.\n\n" +
	"If you’re able to, consider reaching out to:\n" +
	"• A trusted friend or family member\n" +
	"• A mental health professional\n\n" +
	"If you’re in India 🇮🇳:\n" +
	"• AASRA: +91-9820466726 (24/7)\n" +
	"• Kiran Helpline: 1800-599-0019\n\n" +
	"If you’re elsewhere, you can find local crisis numbers at:\n" +
	"https://findahelpline.com\n\n" +
	"If you want, you can tell me where you are, and I can help find a local resource."

// Generator picks between the crisis and generic replies.
type Generator struct {
	Crisis  string
	Generic string
}

// New returns a Generator; empty strings fall back to the built-in replies.
func New(crisis, generic string) *Generator {
	if crisis == "" {
		crisis = CrisisReply
	}
	if generic == "" {
		generic = GenericReply
	}
	return &Generator{Crisis: crisis, Generic: generic}
}

// Default returns a Generator with the built-in replies.
func Default() *Generator {
	return New("", "")
}

// Reply returns the crisis reply when crisis is set, the generic one otherwise.
// history is accepted for parity with a model-backed generator and does not
// influence the text.
func (g *Generator) Reply(history []string, crisis bool) string {
	if crisis {
		return g.Crisis
	}
	return g.Generic
}
