package markdown

import (
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// Engine exposes the transform functions behind the MarkdownEngine contract
// so services and commands can take the engine as a dependency.
type Engine struct{}

// NewEngine returns the deterministic markdown engine.
func NewEngine() *Engine {
	return &Engine{}
}

var _ interfaces.MarkdownEngine = (*Engine)(nil)

func (Engine) Render(text string) string {
	return Render(text)
}

func (Engine) Reverse(markup string) string {
	return Reverse(markup)
}

func (Engine) Outline(source string) []interfaces.Heading {
	return Outline(source)
}

func (Engine) EmergencyOutline(sections domain.EmergencySections) []interfaces.Heading {
	return EmergencyOutline(sections)
}
