package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/teamflow/agent"
	"github.com/martinemde/teamflow/dispatch"
)

// Config is the complete team configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Agents   []AgentConfig  `yaml:"agents"`
	Tools    []ToolConfig   `yaml:"tools"`
	Flow     FlowConfig     `yaml:"flow"`
	Approval ApprovalConfig `yaml:"approval"`
}

// ModelConfig names the LLM backend shared by the agents.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Name     string `yaml:"name"`
	APIKey   string `yaml:"api_key"`
}

// AgentConfig describes one agent profile. When SystemPrompt is empty
// and Role names a built-in role, the role's stock prompt is used.
type AgentConfig struct {
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	SystemPrompt string   `yaml:"system_prompt"`
	Tools        []string `yaml:"tools"`
}

// ArgConfig declares one tool argument.
type ArgConfig struct {
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Description string `yaml:"description"`
}

// ToolConfig declares one registered tool. The capability itself is
// bound in code; configuration carries the contract.
type ToolConfig struct {
	Name          string               `yaml:"name"`
	Description   string               `yaml:"description"`
	SideEffecting bool                 `yaml:"side_effecting"`
	Serialize     bool                 `yaml:"serialize"`
	Args          map[string]ArgConfig `yaml:"args"`
}

// FlowConfig holds the limits of the conversation controllers. The two
// timeouts are independent: invoke_timeout bounds one capability
// invocation, agent_call_timeout bounds one model call.
type FlowConfig struct {
	MaxRounds              int  `yaml:"max_rounds"`
	RepeatWindow           int  `yaml:"repeat_window"`
	MaxPlanRounds          int  `yaml:"max_plan_rounds"`
	MaxConsecutiveFailures int  `yaml:"max_consecutive_failures"`
	Parallel               bool `yaml:"parallel"`

	// MaxRetries bounds retries of a failed agent call. Zero keeps the
	// default; negative disables retries.
	MaxRetries int `yaml:"max_retries"`

	InvokeTimeout    time.Duration `yaml:"-"`
	AgentCallTimeout time.Duration `yaml:"-"`
	RetryBaseDelay   time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	InvokeTimeoutRaw    string `yaml:"invoke_timeout"`
	AgentCallTimeoutRaw string `yaml:"agent_call_timeout"`
	RetryBaseDelayRaw   string `yaml:"retry_base_delay"`
}

// RetryPolicy builds the agent retry policy this entry describes,
// starting from the defaults.
func (f FlowConfig) RetryPolicy() agent.RetryPolicy {
	policy := agent.DefaultRetryPolicy()
	if f.MaxRetries > 0 {
		policy.MaxRetries = f.MaxRetries
	} else if f.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if f.RetryBaseDelay > 0 {
		policy.BaseDelay = f.RetryBaseDelay.Seconds()
	}
	return policy
}

// ApprovalConfig holds the approval gate settings.
type ApprovalConfig struct {
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// Load reads a configuration file from the given path and returns a
// parsed Config. Environment variables in the format ${VAR_NAME} are
// expanded; duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses raw YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present
// and consistent. It returns the first failure encountered.
func (c *Config) Validate() error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}

	toolNames := make(map[string]bool, len(c.Tools))
	for i, tool := range c.Tools {
		if tool.Name == "" {
			return fmt.Errorf("tools[%d].name is required", i)
		}
		if toolNames[tool.Name] {
			return fmt.Errorf("tool %q is declared twice", tool.Name)
		}
		toolNames[tool.Name] = true
	}

	agentNames := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d].name is required", i)
		}
		if agentNames[a.Name] {
			return fmt.Errorf("agent %q is declared twice", a.Name)
		}
		agentNames[a.Name] = true

		for _, tool := range a.Tools {
			if !toolNames[tool] {
				return fmt.Errorf("agent %q allows undeclared tool %q", a.Name, tool)
			}
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration
// values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Flow.InvokeTimeoutRaw != "" {
		cfg.Flow.InvokeTimeout, err = time.ParseDuration(cfg.Flow.InvokeTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing invoke_timeout %q: %w", cfg.Flow.InvokeTimeoutRaw, err)
		}
	}

	if cfg.Flow.AgentCallTimeoutRaw != "" {
		cfg.Flow.AgentCallTimeout, err = time.ParseDuration(cfg.Flow.AgentCallTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing agent_call_timeout %q: %w", cfg.Flow.AgentCallTimeoutRaw, err)
		}
	}

	if cfg.Flow.RetryBaseDelayRaw != "" {
		cfg.Flow.RetryBaseDelay, err = time.ParseDuration(cfg.Flow.RetryBaseDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing retry_base_delay %q: %w", cfg.Flow.RetryBaseDelayRaw, err)
		}
	}

	if cfg.Approval.TimeoutRaw != "" {
		cfg.Approval.Timeout, err = time.ParseDuration(cfg.Approval.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing approval timeout %q: %w", cfg.Approval.TimeoutRaw, err)
		}
	}

	return nil
}

// Profile builds the agent profile this entry describes. Built-in roles
// supply their stock prompt when no system prompt is configured.
func (a AgentConfig) Profile() *agent.Profile {
	if a.SystemPrompt == "" {
		switch a.Role {
		case agent.RoleResearcher:
			return agent.NewResearcherProfile(a.Name, a.Tools...)
		case agent.RoleAnalyst:
			return agent.NewAnalystProfile(a.Name, a.Tools...)
		case agent.RoleValidator:
			return agent.NewValidatorProfile(a.Name, a.Tools...)
		case agent.RoleCoordinator:
			return agent.NewCoordinatorProfile(a.Name)
		}
	}
	return agent.NewProfile(a.Name, a.Role, a.SystemPrompt, a.Tools...)
}

// Profiles builds all configured agent profiles in declaration order.
func (c *Config) Profiles() []*agent.Profile {
	profiles := make([]*agent.Profile, 0, len(c.Agents))
	for _, a := range c.Agents {
		profiles = append(profiles, a.Profile())
	}
	return profiles
}

// Schema builds the dispatch schema this entry declares.
func (t ToolConfig) Schema() dispatch.Schema {
	schema := make(dispatch.Schema, len(t.Args))
	for name, arg := range t.Args {
		schema[name] = dispatch.ArgSpec{
			Type:        dispatch.ArgType(arg.Type),
			Required:    arg.Required,
			Description: arg.Description,
		}
	}
	return schema
}

// Definition builds the registry definition this entry declares.
func (t ToolConfig) Definition() dispatch.ToolDefinition {
	return dispatch.ToolDefinition{
		Name:          t.Name,
		Description:   t.Description,
		Schema:        t.Schema(),
		SideEffecting: t.SideEffecting,
		Serialize:     t.Serialize,
	}
}
