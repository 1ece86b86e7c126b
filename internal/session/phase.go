package session

// Phase is the derived stage of a session. It is never stored; State()
// recomputes it from the underlying facts on every read, so sub-state and
// phase cannot drift apart.
type Phase string

const (
	PhaseNeedsCredential Phase = "needs_credential"
	PhaseReady           Phase = "ready"
	PhaseImageSelected   Phase = "image_selected"
	PhaseGenerating      Phase = "generating"
	PhaseGenerated       Phase = "generated"
)

// phaseOf projects the four underlying facts onto a Phase. The order of the
// cases encodes precedence: an unbound session is always NeedsCredential no
// matter what else it holds, which is how a mid-generation credential
// rejection lands the user back at key entry with the image retained.
func phaseOf(bound, imageSelected, generating, hasResult bool) Phase {
	switch {
	case !bound:
		return PhaseNeedsCredential
	case generating:
		return PhaseGenerating
	case hasResult:
		return PhaseGenerated
	case imageSelected:
		return PhaseImageSelected
	default:
		return PhaseReady
	}
}
