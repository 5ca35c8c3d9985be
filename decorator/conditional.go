package decorator

import (
	"io"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// Predicate decides whether a rule's handler receives the record.
type Predicate func(level record.Level, message string, callContext map[string]any) bool

// Rule pairs a predicate with the handler it routes to.
type Rule struct {
	Predicate Predicate
	Handler   handler.Streamable
}

// Conditional routes each record to the first rule whose predicate matches,
// falling back to an optional default handler when none does.
type Conditional struct {
	*handler.Base
	rules    []Rule
	fallback handler.Streamable
}

var _ handler.Streamable = (*Conditional)(nil)

// NewConditional creates the router. fallback may be nil.
func NewConditional(rules []Rule, fallback handler.Streamable) *Conditional {
	return &Conditional{
		Base:     handler.NewBase("conditional", record.Debug),
		rules:    rules,
		fallback: fallback,
	}
}

// Handle dispatches to the first matching rule and stops. A predicate
// panic propagates to the dispatcher like any other handler fault.
func (c *Conditional) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	for _, rule := range c.rules {
		if rule.Predicate != nil && rule.Predicate(level, message, callContext) {
			return rule.Handler.Handle(level, message, callContext)
		}
	}
	if c.fallback != nil {
		return c.fallback.Handle(level, message, callContext)
	}
	return "", false, nil
}

// each visits every contained handler.
func (c *Conditional) each(fn func(h handler.Streamable)) {
	for _, rule := range c.rules {
		fn(rule.Handler)
	}
	if c.fallback != nil {
		fn(c.fallback)
	}
}

// SetContext propagates the context to every contained handler.
func (c *Conditional) SetContext(context string) {
	c.Base.SetContext(context)
	c.each(func(h handler.Streamable) { h.SetContext(context) })
}

// SetFormatter propagates the formatter to every contained handler.
func (c *Conditional) SetFormatter(f format.Formatter) {
	c.Base.SetFormatter(f)
	c.each(func(h handler.Streamable) { h.SetFormatter(f) })
}

// SetStream propagates the stream override to every contained handler.
func (c *Conditional) SetStream(w io.Writer) {
	c.Base.SetStream(w)
	c.each(func(h handler.Streamable) { h.SetStream(w) })
}
