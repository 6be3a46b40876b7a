package rules

import (
	"log/slog"

	"github.com/KshitijBharambe/hygiene/internal/sandbox"
	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

// Default chunking parameters. Datasets at or below the threshold are
// validated in a single pass; larger ones are split into fixed-size
// row spans so a misbehaving rule cannot hold the whole column set live.
const (
	DefaultChunkThreshold = 10000
	DefaultChunkSize      = 5000
)

// Validator checks a span of dataset rows and reports issues found in it.
// Implementations are constructed per rule execution and may keep state
// between spans (statistical kinds receive the full table in one span).
type Validator interface {
	// Validate inspects rows [start, end) and returns the issues found.
	// Whole-column kinds are always called with the full row range.
	Validate(start, end int) ([]core.ValidationIssue, error)
}

// KindDef describes a validator kind for registration and discovery.
type KindDef struct {
	Kind        core.RuleKind
	Description string

	// WholeColumn marks kinds whose checks are only meaningful over the
	// complete dataset (statistical kinds). They are never chunked.
	WholeColumn bool

	// New builds a validator bound to the given execution context.
	// Parameter decoding errors surface here, before any rows are read.
	New func(ctx *Context) (Validator, error)
}

// Context carries everything a validator needs for one rule execution.
type Context struct {
	Rule    core.Rule
	Dataset *table.Table

	// Resource is the per-worker handle acquired for this execution.
	// May be nil when the caller runs without external resources.
	Resource core.Resource

	// Sandbox evaluates custom expressions. Only the custom kind uses it.
	Sandbox *sandbox.Evaluator

	// Logger records skipped columns and per-row failures. Run replaces
	// a nil Logger with a discard handler.
	Logger *slog.Logger

	ChunkThreshold int
	ChunkSize      int
}

// TargetColumns resolves the columns a rule applies to. An explicit
// "columns" parameter overrides the rule's TargetColumns field. Columns
// absent from the dataset are logged and skipped rather than failing
// the rule, so one renamed column does not sink a whole rule file.
func (c *Context) TargetColumns() []string {
	requested := c.Rule.TargetColumns
	if override, ok := c.Rule.Params["columns"]; ok {
		if names, err := toStringSlice(override); err == nil && len(names) > 0 {
			requested = names
		}
	}

	present := make([]string, 0, len(requested))
	for _, name := range requested {
		if !c.Dataset.HasColumn(name) {
			c.Logger.Warn("target column not in dataset, skipping",
				"rule", c.Rule.ID, "column", name)
			continue
		}
		present = append(present, name)
	}
	return present
}

func (c *Context) chunkThreshold() int {
	if c.ChunkThreshold > 0 {
		return c.ChunkThreshold
	}
	return DefaultChunkThreshold
}

func (c *Context) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}
