package pixel

// Action is a mutation a client asks to perform on a pixel.
type Action string

const (
	ActionRecolor Action = "recolor"
)

// Decision is the outcome of Decide.
type Decision int

const (
	Deny Decision = iota
	Allow
	RequireCheckout
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireCheckout:
		return "require_checkout"
	default:
		return "deny"
	}
}

// Decide is the single ownership rule for pixel mutations. A nil pixel is
// treated as unclaimed. Unclaimed pixels can only be claimed through checkout.
func Decide(p *Pixel, actorID string, action Action) Decision {
	if action != ActionRecolor {
		return Deny
	}
	if !p.Owned() {
		return RequireCheckout
	}
	if actorID != "" && *p.OwnerID == actorID {
		return Allow
	}
	return Deny
}
