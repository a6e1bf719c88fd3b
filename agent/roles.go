package agent

// Role labels for the built-in team composition.
const (
	RoleResearcher  = "researcher"
	RoleAnalyst     = "analyst"
	RoleValidator   = "validator"
	RoleCoordinator = "coordinator"
)

const researcherPrompt = `You are a research specialist on a small team.
Gather the facts the task needs, preferring tools over guesswork. State
what you found and what is still missing so the analyst can proceed.`

const analystPrompt = `You are an analysis specialist on a small team.
Work from the material already in the conversation: identify trends,
comparisons, and confidence levels. Request an analysis tool when the
data warrants it, and say so when the evidence is too thin.`

const validatorPrompt = `You are a validation specialist on a small team.
Check the research and analysis above for gaps and inconsistencies. When
the work holds up, deliver the team's conclusion as the final answer;
otherwise name what must be redone.`

const coordinatorPrompt = `You are the coordinator of several work teams.
Break the objective into ordered, self-contained subtasks, one per line.
Each subtask must be achievable by a small team with research and
analysis tools. Reply with the subtask list only.`

// NewResearcherProfile builds the research role with the given allow-list.
func NewResearcherProfile(name string, tools ...string) *Profile {
	return NewProfile(name, RoleResearcher, researcherPrompt, tools...)
}

// NewAnalystProfile builds the analysis role with the given allow-list.
func NewAnalystProfile(name string, tools ...string) *Profile {
	return NewProfile(name, RoleAnalyst, analystPrompt, tools...)
}

// NewValidatorProfile builds the validation role. Validators typically
// carry no tools; they work from the conversation.
func NewValidatorProfile(name string, tools ...string) *Profile {
	return NewProfile(name, RoleValidator, validatorPrompt, tools...)
}

// NewCoordinatorProfile builds the planning role used for task
// decomposition.
func NewCoordinatorProfile(name string) *Profile {
	return NewProfile(name, RoleCoordinator, coordinatorPrompt)
}
