package turn

import (
	"strconv"
	"strings"

	"github.com/solacevoice/solace/pkg/provider/face"
)

// ComposePrompt builds the generation request from the user's message and an
// optional facial-emotion judgment. The output is deterministic for identical
// inputs. An UNKNOWN judgment contributes nothing; only a real emotion label
// is worth steering the generator with.
func ComposePrompt(userMessage string, facial *FacialEmotion) string {
	var b strings.Builder
	b.WriteString("You are a compassionate therapist. The user says: '")
	b.WriteString(userMessage)
	b.WriteString("'.")
	if facial != nil && facial.Label != face.LabelUnknown {
		b.WriteString(" The user's facial emotion appears to be ")
		b.WriteString(strings.ToLower(facial.Label))
		b.WriteString(" (score: ")
		b.WriteString(strconv.FormatFloat(facial.Score, 'g', -1, 64))
		b.WriteString(").")
	}
	b.WriteString(" Respond empathetically and helpfully.")
	return b.String()
}
