package unit

// Phase selects which part of a unit a scheduling node stands for.
type Phase uint8

const (
	// Head is the signature only.
	Head Phase = iota
	// Body is the full definition.
	Body
)

func (p Phase) String() string {
	if p == Head {
		return "head"
	}
	return "body"
}

// Order is the node type carried by the scheduling graphs: one phase of one unit.
type Order struct {
	Unit  *Unit
	Phase Phase
}

// HeadOf returns the Head order node of u.
func HeadOf(u *Unit) Order {
	return Order{Unit: u, Phase: Head}
}

// BodyOf returns the Body order node of u.
func BodyOf(u *Unit) Order {
	return Order{Unit: u, Phase: Body}
}

func (o Order) String() string {
	return o.Unit.ID() + "@" + o.Phase.String()
}
