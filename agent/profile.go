package agent

// Profile is the immutable, startup-loaded description of an agent: who
// it is, how it is prompted, and which tools it may request.
type Profile struct {
	name         string
	role         string
	systemPrompt string
	allowed      map[string]struct{}
	order        []string
}

// NewProfile creates a Profile allowing exactly the named tools.
func NewProfile(name, role, systemPrompt string, tools ...string) *Profile {
	p := &Profile{
		name:         name,
		role:         role,
		systemPrompt: systemPrompt,
		allowed:      make(map[string]struct{}, len(tools)),
	}
	for _, tool := range tools {
		if _, dup := p.allowed[tool]; dup {
			continue
		}
		p.allowed[tool] = struct{}{}
		p.order = append(p.order, tool)
	}
	return p
}

// Name returns the agent's identity. Together with Allowed it satisfies
// dispatch.Caller.
func (p *Profile) Name() string { return p.name }

// Role returns the agent's role label.
func (p *Profile) Role() string { return p.role }

// SystemPrompt returns the agent's base system prompt.
func (p *Profile) SystemPrompt() string { return p.systemPrompt }

// Allowed reports whether the profile's allow-list contains tool.
func (p *Profile) Allowed(tool string) bool {
	_, ok := p.allowed[tool]
	return ok
}

// AllowedTools returns the allow-list in registration order.
func (p *Profile) AllowedTools() []string {
	tools := make([]string, len(p.order))
	copy(tools, p.order)
	return tools
}
