package chathub

// PresenceRegistry maps a user identity to its live client and back.
// It is not safe for concurrent use; the ManagerService only touches it from
// its Run loop.
type PresenceRegistry struct {
	byIdentity map[string]Client
	byClient   map[Client]string
	order      []string
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byIdentity: make(map[string]Client),
		byClient:   make(map[Client]string),
	}
}

// Register maps identity to c, replacing any earlier client for the same
// identity. The replaced client is forgotten, so its later disconnect does not
// take the identity offline. A client holds at most one identity.
func (p *PresenceRegistry) Register(identity string, c Client) {
	if prev, ok := p.byClient[c]; ok && prev != identity {
		p.remove(prev)
	}

	if old, ok := p.byIdentity[identity]; ok {
		delete(p.byClient, old)
	} else {
		p.order = append(p.order, identity)
	}

	p.byIdentity[identity] = c
	p.byClient[c] = identity
}

// Lookup returns the client currently registered for identity.
func (p *PresenceRegistry) Lookup(identity string) (Client, bool) {
	c, ok := p.byIdentity[identity]
	return c, ok
}

// IdentityOf returns the identity registered on c.
func (p *PresenceRegistry) IdentityOf(c Client) (string, bool) {
	identity, ok := p.byClient[c]
	return identity, ok
}

// Unregister removes whatever identity c is registered under. It reports
// false when c never registered (or was replaced), which is not an error.
func (p *PresenceRegistry) Unregister(c Client) (string, bool) {
	identity, ok := p.byClient[c]
	if !ok {
		return "", false
	}
	p.remove(identity)
	return identity, true
}

// Identities returns online identities in first-registration order.
func (p *PresenceRegistry) Identities() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len is the number of online identities.
func (p *PresenceRegistry) Len() int {
	return len(p.byIdentity)
}

func (p *PresenceRegistry) remove(identity string) {
	if c, ok := p.byIdentity[identity]; ok {
		delete(p.byClient, c)
	}
	delete(p.byIdentity, identity)
	for i, id := range p.order {
		if id == identity {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}
