// Package trace analyses the event stream of a barbershop run: it summarizes
// who was seated, queued, promoted and served, and checks the stream against
// the shop's ordering and exclusivity guarantees.
package trace

import "fmt"

// Violation describes one broken guarantee found in an event stream.
type Violation struct {
	Index    int // position of the offending event
	ClientID int
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("event %d (client %d): %s", v.Index, v.ClientID, v.Message)
}
