package models

import "github.com/google/uuid"

type ActorKind int

const (
	ActorPlayer ActorKind = iota
	ActorConsole
	ActorSystem
)

// Actor identifies who performed a mutation. Console and system actors have
// no player identity, so the kind is carried explicitly instead of reusing a
// zero UUID as a sentinel.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   uuid.UUID `json:"id,omitempty"`
}

func PlayerActor(id uuid.UUID) Actor {
	return Actor{Kind: ActorPlayer, ID: id}
}

func ConsoleActor() Actor {
	return Actor{Kind: ActorConsole}
}

func SystemActor() Actor {
	return Actor{Kind: ActorSystem}
}

func (a Actor) String() string {
	switch a.Kind {
	case ActorConsole:
		return "console"
	case ActorSystem:
		return "system"
	default:
		return a.ID.String()
	}
}
