// Package config loads the YAML configuration describing the team:
// model endpoints, agent profiles with their tool allow-lists, tool
// schemas, flow limits, and the approval gate timeout. Environment
// variables in ${VAR} form are expanded before parsing, and duration
// fields accept Go duration strings.
package config
