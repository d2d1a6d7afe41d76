package domain

// Status represents persisted lifecycle states for document versions
type Status string

const (
	// StatusDraft indicates a version still under preparation
	StatusDraft Status = "draft"
	// StatusPublished identifies a version available to the audience
	StatusPublished Status = "published"
)

// EditStatus marks in-place revision bookkeeping on a published version
type EditStatus string

const (
	// EditStatusNone is the resting state for every version
	EditStatusNone EditStatus = "none"
	// EditStatusRevising marks a published current version with an open revision draft
	EditStatusRevising EditStatus = "revising"
)

// Kind distinguishes freeform articles from structured emergency runbooks
type Kind string

const (
	// KindStandard carries a single markdown content field
	KindStandard Kind = "standard"
	// KindEmergency carries the five named runbook sections
	KindEmergency Kind = "emergency"
)

// ValidKind reports whether the supplied kind is one of the known document kinds.
func ValidKind(kind Kind) bool {
	switch kind {
	case KindStandard, KindEmergency:
		return true
	default:
		return false
	}
}

// EmergencySections groups the five structured runbook fields. Empty strings
// mark unpopulated sections; presentation order is fixed by SectionList.
type EmergencySections struct {
	FaultScenario  string `bun:"fault_scenario,nullzero"  json:"fault_scenario,omitempty"  yaml:"fault_scenario"`
	TriggerProcess string `bun:"trigger_process,nullzero" json:"trigger_process,omitempty" yaml:"trigger_process"`
	Solution       string `bun:"solution,nullzero"        json:"solution,omitempty"        yaml:"solution"`
	Verification   string `bun:"verification,nullzero"    json:"verification,omitempty"    yaml:"verification"`
	Recovery       string `bun:"recovery,nullzero"        json:"recovery,omitempty"        yaml:"recovery"`
}

// Empty reports whether every section is blank.
func (s EmergencySections) Empty() bool {
	return whitespaceOnly(s.FaultScenario) &&
		whitespaceOnly(s.TriggerProcess) &&
		whitespaceOnly(s.Solution) &&
		whitespaceOnly(s.Verification) &&
		whitespaceOnly(s.Recovery)
}

// Section pairs a runbook field with its storage key and display title.
type Section struct {
	Key   string
	Title string
	Body  string
}

// Emergency section storage keys.
const (
	SectionFaultScenario  = "fault_scenario"
	SectionTriggerProcess = "trigger_process"
	SectionSolution       = "solution"
	SectionVerification   = "verification"
	SectionRecovery       = "recovery"
)

// SectionTitles maps section keys to their fixed display titles.
var SectionTitles = map[string]string{
	SectionFaultScenario:  "故障场景",
	SectionTriggerProcess: "触发流程",
	SectionSolution:       "解决方案",
	SectionVerification:   "验证方案",
	SectionRecovery:       "恢复方案",
}

// SectionList returns the populated sections in canonical order: fault
// scenario, trigger process, solution, verification, recovery. Blank sections
// are dropped entirely. Field population order never changes the result.
func (s EmergencySections) SectionList() []Section {
	ordered := []struct {
		key  string
		body string
	}{
		{SectionFaultScenario, s.FaultScenario},
		{SectionTriggerProcess, s.TriggerProcess},
		{SectionSolution, s.Solution},
		{SectionVerification, s.Verification},
		{SectionRecovery, s.Recovery},
	}

	var out []Section
	for _, entry := range ordered {
		if whitespaceOnly(entry.body) {
			continue
		}
		out = append(out, Section{Key: entry.key, Title: SectionTitles[entry.key], Body: entry.body})
	}
	return out
}

func whitespaceOnly(value string) bool {
	for _, r := range value {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
