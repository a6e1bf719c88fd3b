package dispatch

import (
	"regexp"
	"strings"
)

// Complexity classifies how involved a task description looks.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Strategy describes how selected tools should be executed.
type Strategy string

const (
	StrategySingle     Strategy = "single_tool"
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
)

// TaskAnalysis is the Selector's verdict on a task description.
type TaskAnalysis struct {
	Tools         []string   `json:"tools"`
	Location      string     `json:"location"`
	HasComparison bool       `json:"has_comparison"`
	Complexity    Complexity `json:"complexity"`
	Strategy      Strategy   `json:"strategy"`
}

// Selector proposes candidate tools for a task by matching domain
// patterns against the description. Planners use it to seed static
// decomposition; the dispatcher itself never consults it.
type Selector struct {
	patterns  map[string][]*regexp.Regexp
	order     []string
	locations []*regexp.Regexp
	temporal  []*regexp.Regexp
}

// defaultToolPatterns maps tool names to the phrases that suggest them.
var defaultToolPatterns = map[string][]string{
	"environmental_data": {
		`pollution`, `environment`, `air quality`, `water quality`,
		`pm2\.5`, `pm10`, `carbon`, `emissions`, `climate`,
	},
	"web_search": {
		`news`, `current`, `latest`, `recent`, `today`, `search`,
		`research`, `study`, `report`,
	},
	"market_data": {
		`stock`, `market`, `price`, `finance`, `economy`,
		`revenue`, `profit`, `trading`,
	},
	"weather_data": {
		`weather`, `temperature`, `rain`, `storm`, `forecast`, `humidity`,
	},
	"data_analysis": {
		`analyze`, `analysis`, `compare`, `comparison`, `evaluate`,
		`assess`, `calculate`, `statistics`,
	},
}

// executionOrder fixes the order data-gathering tools run before
// analysis tools.
var executionOrder = []string{
	"environmental_data", "web_search", "market_data", "weather_data", "data_analysis",
}

var locationPatterns = []string{
	`in ([A-Za-z][A-Za-z\s]*)`, `for ([A-Za-z][A-Za-z\s]*)`,
	`from ([A-Za-z][A-Za-z\s]*)`,
}

var temporalPatterns = []string{
	`last year`, `previous year`, `compared to`, `\bvs\b`, `versus`,
	`difference`, `change from`, `20\d\d`,
}

// nonLocations are capture results that look like locations but aren't.
var nonLocations = map[string]bool{
	"data": true, "information": true, "analysis": true, "report": true,
}

// NewSelector creates a Selector with the default domain patterns.
func NewSelector() *Selector {
	s := &Selector{
		patterns: make(map[string][]*regexp.Regexp, len(defaultToolPatterns)),
		order:    executionOrder,
	}
	for tool, patterns := range defaultToolPatterns {
		for _, p := range patterns {
			s.patterns[tool] = append(s.patterns[tool], regexp.MustCompile(p))
		}
	}
	for _, p := range locationPatterns {
		s.locations = append(s.locations, regexp.MustCompile(`(?i)`+p))
	}
	for _, p := range temporalPatterns {
		s.temporal = append(s.temporal, regexp.MustCompile(p))
	}
	return s
}

// Analyze inspects a task description and proposes tools and context.
// At least one tool is always proposed; web_search is the fallback.
func (s *Selector) Analyze(task string) TaskAnalysis {
	lower := strings.ToLower(task)

	var selected []string
	for _, tool := range s.order {
		for _, p := range s.patterns[tool] {
			if p.MatchString(lower) {
				selected = append(selected, tool)
				break
			}
		}
	}
	if len(selected) == 0 {
		selected = []string{"web_search"}
	}

	// Multiple data sources imply a comparison/analysis step.
	if len(selected) > 1 && !contains(selected, "data_analysis") {
		selected = append(selected, "data_analysis")
	}

	return TaskAnalysis{
		Tools:         selected,
		Location:      s.extractLocation(task),
		HasComparison: s.hasComparison(lower),
		Complexity:    assessComplexity(task),
		Strategy:      strategyFor(selected),
	}
}

// ExecutionOrder sorts the given tools into the fixed dependency order;
// unknown tools keep their relative position at the end.
func (s *Selector) ExecutionOrder(tools []string) []string {
	ordered := make([]string, 0, len(tools))
	for _, known := range s.order {
		if contains(tools, known) {
			ordered = append(ordered, known)
		}
	}
	for _, t := range tools {
		if !contains(ordered, t) {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

func (s *Selector) extractLocation(task string) string {
	for _, p := range s.locations {
		m := p.FindStringSubmatch(task)
		if len(m) < 2 {
			continue
		}
		location := strings.TrimSpace(m[1])
		// Keep only the leading word group before any verb-ish tail.
		if idx := strings.IndexAny(location, ".,;"); idx >= 0 {
			location = strings.TrimSpace(location[:idx])
		}
		if location != "" && !nonLocations[strings.ToLower(location)] {
			return location
		}
	}
	return "global"
}

func (s *Selector) hasComparison(lower string) bool {
	for _, p := range s.temporal {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

func assessComplexity(task string) Complexity {
	words := len(strings.Fields(task))
	switch {
	case words > 25:
		return ComplexityComplex
	case words > 10:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

func strategyFor(tools []string) Strategy {
	switch {
	case len(tools) <= 1:
		return StrategySingle
	case contains(tools, "data_analysis"):
		// Analysis depends on gathered data, so gathering must finish first.
		return StrategySequential
	default:
		return StrategyParallel
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
