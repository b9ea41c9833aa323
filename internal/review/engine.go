package review

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/oncallops/revu/internal/identity"
	"github.com/oncallops/revu/internal/incident"
)

// ErrNoPOC reports an incident that reached the persistence step without a
// POC assignment. The engine assigns a (possibly empty) set to every kept
// incident, so hitting this is a programming defect, not a runtime
// condition to recover from.
var ErrNoPOC = errors.New("incident has no POC assignment")

// Prompter is the human interface consumed by the engine. Both operations
// block until the human answers or the prompt surface fails; a failure
// aborts the whole run.
type Prompter interface {
	// Confirm asks a yes/no question with a default answer.
	Confirm(ctx context.Context, question string, def bool) (bool, error)
	// SelectIdentities asks for a multi-selection over unified identities.
	// The default selection is empty, and an empty answer is a valid choice.
	SelectIdentities(ctx context.Context, question string, choices []identity.Identity) ([]identity.Identity, error)
}

// EngineHooks receive decision-loop events for metrics. Nil hooks are
// skipped.
type EngineHooks struct {
	OnGroup    func(size int, treatAsOne bool)
	OnDecision func(kept bool, pocs int)
	OnComplete func(p *Partition)
}

// Engine runs the interactive accept/reject protocol over incident groups.
type Engine struct {
	prompter Prompter
	out      io.Writer
	logger   log.Logger
	hooks    EngineHooks
}

// NewEngine creates a decision engine writing its group displays to out.
func NewEngine(prompter Prompter, out io.Writer, logger log.Logger, hooks EngineHooks) *Engine {
	if prompter == nil {
		panic(xerrors.New("prompter is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		prompter: prompter,
		out:      out,
		logger:   logger,
		hooks:    hooks,
	}
}

// Review walks the groups in order and partitions every incident into
// to-review or excluded. Groups with more than one incident are offered as
// a combined decision first; declining (or a single-incident group) falls
// back to per-incident decisions. Kept units get a POC set selected from
// identities and applied before the incident is appended to the partition.
// Any prompt failure aborts with no partial result.
func (e *Engine) Review(ctx context.Context, groups []Group, identities []identity.Identity) (*Partition, error) {
	p := &Partition{
		ToReview: []incident.Incident{},
		Excluded: []incident.Incident{},
	}

	for _, group := range groups {
		treatAsOne := false
		if len(group.Incidents) > 1 {
			fmt.Fprintf(e.out, "There are %d incidents with a title similar to this: %s\n", len(group.Incidents), group.Title)
			fmt.Fprintln(e.out, "All incidents with a similar title:")
			for _, inc := range group.Incidents {
				fmt.Fprintln(e.out, inc.Describe())
			}
			var err error
			treatAsOne, err = e.prompter.Confirm(ctx, "Treat them as one?", true)
			if err != nil {
				return nil, fmt.Errorf("confirm treat-as-one: %w", err)
			}
		}

		if e.hooks.OnGroup != nil {
			e.hooks.OnGroup(len(group.Incidents), treatAsOne)
		}

		if treatAsOne {
			if err := e.decideCombined(ctx, group, identities, p); err != nil {
				return nil, err
			}
			continue
		}
		if err := e.decidePerIncident(ctx, group, identities, p); err != nil {
			return nil, err
		}
	}

	e.logger.Info(ctx, "review partition complete",
		"to_review", len(p.ToReview),
		"excluded", len(p.Excluded),
	)
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(p)
	}
	return p, nil
}

// decideCombined takes one keep/exclude decision and one POC set for the
// whole group.
func (e *Engine) decideCombined(ctx context.Context, group Group, identities []identity.Identity, p *Partition) error {
	keep, err := e.prompter.Confirm(ctx, "Keep these incidents for review?", false)
	if err != nil {
		return fmt.Errorf("confirm keep group: %w", err)
	}
	if !keep {
		p.Excluded = append(p.Excluded, group.Incidents...)
		if e.hooks.OnDecision != nil {
			e.hooks.OnDecision(false, 0)
		}
		return nil
	}

	pocs, err := e.requestPOCs(ctx, identities)
	if err != nil {
		return err
	}
	for _, inc := range group.Incidents {
		assignPOCs(&inc, pocs)
		p.ToReview = append(p.ToReview, inc)
	}
	if e.hooks.OnDecision != nil {
		e.hooks.OnDecision(true, len(pocs))
	}
	return nil
}

// decidePerIncident asks keep/exclude for each incident of the group
// individually, collecting a POC set per kept incident.
func (e *Engine) decidePerIncident(ctx context.Context, group Group, identities []identity.Identity, p *Partition) error {
	for _, inc := range group.Incidents {
		fmt.Fprintln(e.out, inc.Describe())
		keep, err := e.prompter.Confirm(ctx, "Keep this incident for review?", false)
		if err != nil {
			return fmt.Errorf("confirm keep incident %d: %w", inc.Number, err)
		}
		if !keep {
			p.Excluded = append(p.Excluded, inc)
			if e.hooks.OnDecision != nil {
				e.hooks.OnDecision(false, 0)
			}
			continue
		}

		pocs, err := e.requestPOCs(ctx, identities)
		if err != nil {
			return err
		}
		assignPOCs(&inc, pocs)
		p.ToReview = append(p.ToReview, inc)
		if e.hooks.OnDecision != nil {
			e.hooks.OnDecision(true, len(pocs))
		}
	}
	return nil
}

func (e *Engine) requestPOCs(ctx context.Context, identities []identity.Identity) ([]identity.Identity, error) {
	pocs, err := e.prompter.SelectIdentities(ctx, "Please select the users who are POCs for this incident", identities)
	if err != nil {
		return nil, fmt.Errorf("select POCs: %w", err)
	}
	return pocs, nil
}

// assignPOCs stores the selection on the incident. The stored slice is
// never nil: an empty selection is an explicit choice, distinct from
// "never asked" (see ErrNoPOC).
func assignPOCs(inc *incident.Incident, pocs []identity.Identity) {
	assigned := make([]identity.Identity, len(pocs))
	copy(assigned, pocs)
	inc.POCs = assigned
}
