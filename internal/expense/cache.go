package expense

// Cache remembers the analysis outcome of every file processed in a session.
// It never evicts; storing an identity again overwrites the previous outcome.
type Cache struct {
	outcomes map[FileIdentity]Outcome
}

// NewCache creates an empty Cache
func NewCache() *Cache {
	return &Cache{outcomes: make(map[FileIdentity]Outcome)}
}

// Lookup returns the outcome stored for id, if any
func (c *Cache) Lookup(id FileIdentity) (Outcome, bool) {
	outcome, ok := c.outcomes[id]
	return outcome, ok
}

// Store records the outcome for id
func (c *Cache) Store(id FileIdentity, outcome Outcome) {
	c.outcomes[id] = outcome
}

// Len returns the number of cached outcomes
func (c *Cache) Len() int {
	return len(c.outcomes)
}
