package engine

// Clock versions the model so asynchronous fetch results can be matched to
// the state they were issued against. Every accepted mutation bumps it.
type Clock struct {
	version uint64
}

// Ticket tags one in-flight fetch.
type Ticket struct {
	Version uint64
}

// Bump advances the version and returns it.
func (c *Clock) Bump() uint64 {
	c.version++
	return c.version
}

// Version is the current model version.
func (c *Clock) Version() uint64 {
	return c.version
}

// Stamp tags a fetch issued now.
func (c *Clock) Stamp() Ticket {
	return Ticket{Version: c.version}
}

// Check returns ErrStaleFetch when the model moved on since t was stamped.
func (c *Clock) Check(t Ticket) error {
	if t.Version != c.version {
		return ErrStaleFetch
	}
	return nil
}
