// Package nation holds the Nation record and the entity store that owns the
// live population. All subsystem mutations go through the store's per-nation
// locks and are persisted whole-record after every change.
package nation

// Role is a player's standing inside a nation. Each nation has exactly one
// leader; everyone else is an officer or a citizen.
type Role string

const (
	RoleLeader  Role = "leader"
	RoleOfficer Role = "officer"
	RoleCitizen Role = "citizen"
)

// Nation is the primary simulated entity. The ID is immutable after
// creation; everything else mutates under the store's per-nation lock.
type Nation struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	LeaderID          string          `json:"leader_id"`
	Treasury          float64         `json:"treasury"`
	CurrencyCode      string          `json:"currency_code"`
	ExchangeRateToAXC float64         `json:"exchange_rate_to_axc"` // nation currency -> AXC
	Allies            map[string]bool `json:"allies,omitempty"`     // ally nation IDs
	Roles             map[string]Role `json:"roles,omitempty"`      // player ID -> role
	History           []string        `json:"history,omitempty"`    // append-only
	Chunks            map[string]bool `json:"chunks,omitempty"`     // claimed chunk keys, world:x:z
}

// New creates a nation with the given leader enrolled and sane defaults.
func New(id, name, leaderID, currencyCode string, treasury float64) *Nation {
	return &Nation{
		ID:                id,
		Name:              name,
		LeaderID:          leaderID,
		Treasury:          treasury,
		CurrencyCode:      currencyCode,
		ExchangeRateToAXC: 1.0,
		Allies:            make(map[string]bool),
		Roles:             map[string]Role{leaderID: RoleLeader},
		Chunks:            make(map[string]bool),
	}
}

// IsMember reports whether the player holds any role in this nation.
func (n *Nation) IsMember(playerID string) bool {
	_, ok := n.Roles[playerID]
	return ok
}

// HasAlly reports whether this nation lists the other as an ally. Note the
// ally relation is stored one-sided; use alliance.Service.AreAllies for the
// symmetric query.
func (n *Nation) HasAlly(nationID string) bool {
	return n.Allies[nationID]
}

// OwnsChunk reports whether the chunk key belongs to this nation's territory.
func (n *Nation) OwnsChunk(key string) bool {
	return n.Chunks[key]
}

// Citizens returns the IDs of all members.
func (n *Nation) Citizens() []string {
	out := make([]string, 0, len(n.Roles))
	for id := range n.Roles {
		out = append(out, id)
	}
	return out
}

// AddHistory appends a human-readable entry to the nation's history log.
func (n *Nation) AddHistory(entry string) {
	n.History = append(n.History, entry)
}

// SetLeader promotes the player to leader and demotes the previous leader to
// citizen. The caller must hold the nation's lock.
func (n *Nation) SetLeader(playerID string) {
	if n.Roles == nil {
		n.Roles = make(map[string]Role)
	}
	if n.LeaderID != "" && n.LeaderID != playerID {
		n.Roles[n.LeaderID] = RoleCitizen
	}
	n.Roles[playerID] = RoleLeader
	n.LeaderID = playerID
}
