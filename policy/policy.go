// Package policy provides a simple, optional per-tool approval layer that
// can be attached to an agent run via context. It is deliberately decoupled
// from the orchestrator so that using it is entirely opt-in – runs that do
// not embed a Policy in their context keep the registry's gating behaviour.

package policy

import (
	"context"
	"strings"
)

// Execution modes recognised by the orchestrator.
const (
	ModeAsk  = "ask"  // route gated tools through human approval (default)
	ModeAuto = "auto" // execute everything automatically
	ModeDeny = "deny" // block gated tools outright
)

// AskFunc is invoked when Mode==ask and a caller wants to resolve approval
// inline instead of via the approval service. Returning true approves the
// tool call, false rejects it. Implementations MAY mutate the policy (for
// example, switching to ModeAuto after the first approval).
type AskFunc func(
	ctx context.Context,
	toolName string,
	args map[string]interface{}, // expanded tool arguments – may be nil
	p *Policy,
) bool

// Policy represents the approval settings for the current agent run.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList allow coarse filtering regardless of Mode.
//   - Ask is only used when Mode==ask.
//
// A nil *Policy means "follow the tool registry's gating" and is therefore
// the zero-cost default.
type Policy struct {
	Mode      string   // ask / auto / deny      (default = ask)
	AllowList []string // whitelist (empty => all)
	BlockList []string // blacklist
	Ask       AskFunc  // used only when Mode==ask
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList. Both lists match by exact,
// case-insensitive comparison of the tool name.
func (p *Policy) IsAllowed(toolName string) bool {
	if p == nil {
		return true
	}

	normalized := strings.ToLower(toolName)

	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}

	// AllowList – if empty everything is allowed, otherwise only the listed
	// entries.
	if len(p.AllowList) == 0 {
		return true
	}

	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}

	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts (*Policy, ok).
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
