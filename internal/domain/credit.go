package domain

// CreditRole is the part a person played in a title.
type CreditRole string

const (
	RoleActor    CreditRole = "ACTOR"
	RoleDirector CreditRole = "DIRECTOR"
)

// Credit links a person to a title. Credits are maintained outside this
// service and only read here.
type Credit struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      CreditRole `json:"role"`
	Character string     `json:"character,omitempty"`
}
