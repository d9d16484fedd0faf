// Package dedup finds brokers that share a normalized name, keeps one
// canonical record per group and deletes the rest.
//
// Matching is exact on the lowercased, trimmed name. The canonical record
// is the one with the highest rating (missing ratings count as 0); ties go
// to the earliest created_at and then to the smallest id, so repeated runs
// over the same data always pick the same survivor.
package dedup

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"brokerscope/internal/metrics"
	"brokerscope/internal/models"
)

// Lister returns every broker in the store.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Broker, error)
}

// Deleter removes one broker by id, reporting whether it existed.
type Deleter interface {
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store is what a full run needs.
type Store interface {
	Lister
	Deleter
}

// NormalizeName returns the grouping key for a broker name.
func NormalizeName(name string) string {
	return models.NormalizeName(name)
}

// Group is a set of brokers sharing a normalized name.
type Group struct {
	Key     string          `json:"key"`
	Members []models.Broker `json:"members"`
}

// Groups maps a normalized name to its members in store order.
type Groups map[string][]models.Broker

// FindDuplicateGroups buckets brokers by normalized name.
func FindDuplicateGroups(brokers []models.Broker) Groups {
	groups := Groups{}
	for _, b := range brokers {
		key := NormalizeName(b.Name)
		groups[key] = append(groups[key], b)
	}
	return groups
}

// Duplicates returns the groups with more than one member, sorted by key.
func (g Groups) Duplicates() []Group {
	out := []Group{}
	for key, members := range g {
		if len(members) > 1 {
			out = append(out, Group{Key: key, Members: members})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// preferred reports whether a should survive over b.
func preferred(a, b models.Broker) bool {
	if ra, rb := a.RatingValue(), b.RatingValue(); ra != rb {
		return ra > rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// SelectCanonical picks the record to keep from members and returns the
// others, in their original order, for removal. members must not be empty.
func SelectCanonical(members []models.Broker) (keep models.Broker, remove []models.Broker) {
	best := 0
	for i := 1; i < len(members); i++ {
		if preferred(members[i], members[best]) {
			best = i
		}
	}
	keep = members[best]
	remove = make([]models.Broker, 0, len(members)-1)
	for i, m := range members {
		if i != best {
			remove = append(remove, m)
		}
	}
	return keep, remove
}

// PlannedGroup is the resolution of one duplicate group.
type PlannedGroup struct {
	Key    string          `json:"key"`
	Keep   models.Broker   `json:"keep"`
	Remove []models.Broker `json:"remove"`
}

// Plan lists every deletion a run would perform.
type Plan struct {
	Groups []PlannedGroup `json:"groups"`
}

// Deletions returns the number of brokers the plan removes.
func (p Plan) Deletions() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Remove)
	}
	return n
}

// NewPlan resolves every duplicate group in brokers.
func NewPlan(brokers []models.Broker) Plan {
	plan := Plan{Groups: []PlannedGroup{}}
	for _, g := range FindDuplicateGroups(brokers).Duplicates() {
		keep, remove := SelectCanonical(g.Members)
		plan.Groups = append(plan.Groups, PlannedGroup{Key: g.Key, Keep: keep, Remove: remove})
	}
	return plan
}

// Status is the result of one deletion attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome records what happened to one broker scheduled for removal.
type Outcome struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Status Status    `json:"status"`
	Reason string    `json:"reason,omitempty"`
}

// Apply deletes every broker the plan removes, one at a time and without
// a transaction. A failed deletion is recorded and the run moves on; once
// ctx is done the remaining deletions are recorded as failures.
func Apply(ctx context.Context, d Deleter, plan Plan) []Outcome {
	outcomes := make([]Outcome, 0, plan.Deletions())
	for _, g := range plan.Groups {
		for _, b := range g.Remove {
			o := Outcome{ID: b.ID, Name: b.Name, Status: StatusSuccess}
			if err := ctx.Err(); err != nil {
				o.Status, o.Reason = StatusFailure, err.Error()
			} else if found, err := d.Delete(ctx, b.ID); err != nil {
				o.Status, o.Reason = StatusFailure, err.Error()
			} else if !found {
				o.Status, o.Reason = StatusFailure, "not found"
			}

			ev := log.Info()
			if o.Status == StatusFailure {
				ev = log.Warn().Str("reason", o.Reason)
			}
			ev.Str("group", g.Key).
				Str("broker_id", b.ID.String()).
				Str("kept_id", g.Keep.ID.String()).
				Str("status", string(o.Status)).
				Msg("dedup delete")
			metrics.ObserveMaintenance("dedup", string(o.Status))

			outcomes = append(outcomes, o)
		}
	}
	return outcomes
}

// Verify re-reads the store and returns any duplicate groups that remain.
func Verify(ctx context.Context, l Lister) ([]Group, error) {
	brokers, err := l.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify dedup: %w", err)
	}
	return FindDuplicateGroups(brokers).Duplicates(), nil
}

// Report summarizes a run.
type Report struct {
	DryRun    bool      `json:"dry_run"`
	Scanned   int       `json:"scanned"`
	Plan      Plan      `json:"plan"`
	Outcomes  []Outcome `json:"outcomes"`
	Remaining []Group   `json:"remaining"`
}

// Succeeded counts successful deletions.
func (r *Report) Succeeded() int { return r.count(StatusSuccess) }

// Failed counts failed deletions.
func (r *Report) Failed() int { return r.count(StatusFailure) }

func (r *Report) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Run lists all brokers, plans the deletions and, unless dryRun is set,
// applies them and verifies that no duplicate group is left. In a dry run
// Remaining holds the groups the plan would resolve.
func Run(ctx context.Context, s Store, dryRun bool) (*Report, error) {
	brokers, err := s.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}

	plan := NewPlan(brokers)
	report := &Report{
		DryRun:   dryRun,
		Scanned:  len(brokers),
		Plan:     plan,
		Outcomes: []Outcome{},
	}
	log.Info().
		Int("brokers", len(brokers)).
		Int("groups", len(plan.Groups)).
		Int("deletions", plan.Deletions()).
		Bool("dry_run", dryRun).
		Msg("dedup plan ready")

	if dryRun {
		report.Remaining = FindDuplicateGroups(brokers).Duplicates()
		return report, nil
	}

	report.Outcomes = Apply(ctx, s, plan)
	remaining, err := Verify(ctx, s)
	if err != nil {
		return report, err
	}
	report.Remaining = remaining
	if len(remaining) > 0 {
		log.Warn().Int("groups", len(remaining)).Msg("duplicate groups remain after dedup")
	}
	return report, nil
}
