package tags

import "log"

// Fanout publishes every tag to a primary store and best-effort mirrors. A
// mirror failure is logged per tag and never propagates, so a flaky broker
// cannot abort a poll.
type Fanout struct {
	primary *Store
	mirrors []Sink
}

// NewFanout wraps the primary store with zero or more mirror sinks.
func NewFanout(primary *Store, mirrors ...Sink) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors}
}

// Publish stores the tag and mirrors it.
func (f *Fanout) Publish(name string, value any) error {
	if err := f.primary.Publish(name, value); err != nil {
		return err
	}
	for _, mirror := range f.mirrors {
		if err := mirror.Publish(name, value); err != nil {
			log.Printf("Warning: failed to mirror tag %q: %v", name, err)
		}
	}
	return nil
}
