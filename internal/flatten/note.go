package flatten

import (
	"fmt"

	"github.com/tsgonest/tskeys/internal/typedesc"
)

// NoteKind classifies a place where expansion stopped early.
type NoteKind string

const (
	NoteUnresolved NoteKind = "unresolved-reference"
	NoteCycle      NoteKind = "cycle"
	NoteDepth      NoteKind = "depth-exceeded"
)

// Note records a terminal-but-valid state met during expansion. The record
// at Path is still emitted; it just has no children.
type Note struct {
	Kind  NoteKind         `json:"kind"`
	Path  string           `json:"path"`
	Name  string           `json:"name,omitempty"`
	Scope typedesc.ScopeID `json:"scope,omitempty"`
}

func (n Note) String() string {
	switch n.Kind {
	case NoteUnresolved:
		return fmt.Sprintf("%s: type %q could not be resolved, emitted as a leaf", n.Path, n.Name)
	case NoteCycle:
		return fmt.Sprintf("%s: type %q refers back to itself, emitted as a leaf", n.Path, n.Name)
	case NoteDepth:
		return fmt.Sprintf("%s: nesting depth limit reached, emitted as a leaf", n.Path)
	default:
		return fmt.Sprintf("%s: %s", n.Path, n.Kind)
	}
}
