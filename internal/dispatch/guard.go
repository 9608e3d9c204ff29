package dispatch

// Guard answers role membership questions against the supplied authorization
// lists. Managing those lists is outside this service; the guard only
// enforces them. Admins are a superset of operators.
type Guard struct {
	operators map[string]struct{}
	admins    map[string]struct{}
}

func NewGuard(operatorIDs, adminIDs []string) *Guard {
	g := &Guard{
		operators: make(map[string]struct{}, len(operatorIDs)),
		admins:    make(map[string]struct{}, len(adminIDs)),
	}
	for _, id := range operatorIDs {
		g.operators[id] = struct{}{}
	}
	for _, id := range adminIDs {
		g.admins[id] = struct{}{}
	}
	return g
}

// IsOperator reports whether the id may drive check-in at all.
func (g *Guard) IsOperator(id string) bool {
	if _, ok := g.operators[id]; ok {
		return true
	}
	return g.IsAdmin(id)
}

// IsAdmin reports whether the id may use elevated commands (upload, stats,
// export, logs).
func (g *Guard) IsAdmin(id string) bool {
	_, ok := g.admins[id]
	return ok
}
