package schedule

import (
	"time"

	"rehab-booking/internal/models"
)

const DefaultLeadTime = 24 * time.Hour

type Outcome string

const (
	Pending                     Outcome = "pending"
	Admitted                    Outcome = "admitted"
	RejectedMissingInput        Outcome = "rejected_missing_input"
	RejectedLeadTime            Outcome = "rejected_lead_time"
	RejectedOutsideAvailability Outcome = "rejected_outside_availability"
	RejectedConflict            Outcome = "rejected_conflict"
	ClientEditLocked            Outcome = "client_edit_locked"
)

// Decision is the terminal state of one admission run.
type Decision struct {
	Outcome Outcome
	// Advisory is set when a staff booking was admitted outside the
	// trainer's declared availability.
	Advisory bool
	// ConflictWith names the booking that caused RejectedConflict.
	ConflictWith string
}

func (d Decision) Admitted() bool {
	return d.Outcome == Admitted
}

// Err maps a rejection onto the error taxonomy; nil when admitted.
func (d Decision) Err() error {
	switch d.Outcome {
	case Admitted:
		return nil
	case RejectedMissingInput:
		return ErrMissingInput
	case RejectedLeadTime:
		return ErrLeadTimeViolation
	case RejectedOutsideAvailability:
		return ErrOutsideAvailability
	case RejectedConflict:
		return ErrConflict
	case ClientEditLocked:
		return ErrClientEditLocked
	default:
		return ErrMissingInput
	}
}

type availabilityRule int

const (
	availabilityRequired availabilityRule = iota
	availabilityAdvisory
)

type ruleSet struct {
	leadTime     bool
	availability availabilityRule
	editLock     bool
}

var customerRules = ruleSet{leadTime: true, availability: availabilityRequired, editLock: true}
var staffRules = ruleSet{leadTime: false, availability: availabilityAdvisory, editLock: false}

// roleRules is the single place role-specific behaviour is decided. Conflict
// checking is not in here: double-booking a trainer is refused for everyone.
var roleRules = map[models.Role]ruleSet{
	models.RoleClient:  customerRules,
	models.RoleNone:    customerRules,
	models.RoleTrainer: staffRules,
	models.RoleAdmin:   staffRules,
}

func rulesFor(role models.Role) ruleSet {
	if rules, ok := roleRules[role]; ok {
		return rules
	}
	return customerRules
}

// Candidate is a single occurrence asking for admission.
type Candidate struct {
	TrainerID string
	ClientID  string
	Start     time.Time
	Duration  int
	// ExcludeID is the booking being edited; it never conflicts with itself.
	ExcludeID string
}

func (c Candidate) End() time.Time {
	return CalcEnd(c.Start, c.Duration)
}

type Policy struct {
	LeadTime time.Duration
	Now      func() time.Time
}

func NewPolicy(leadTime time.Duration, now func() time.Time) Policy {
	if leadTime <= 0 {
		leadTime = DefaultLeadTime
	}
	if now == nil {
		now = time.Now
	}
	return Policy{LeadTime: leadTime, Now: now}
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Boundary is the earliest instant a customer may book or still change.
func (p Policy) Boundary() time.Time {
	return p.now().Add(p.LeadTime)
}

// WithinLeadTime reports whether t is too close to now for role.
func (p Policy) WithinLeadTime(role models.Role, t time.Time) bool {
	if !rulesFor(role).leadTime {
		return false
	}
	return t.Before(p.Boundary())
}

// Admit runs the admission rules for one candidate, in fixed order:
// missing input, lead time, availability, conflict. The first failing rule
// decides. week is nil when no availability has been loaded.
func (p Policy) Admit(role models.Role, c Candidate, week models.WeeklyAvailability, snap Snapshot) Decision {
	rules := rulesFor(role)

	if c.TrainerID == "" || c.ClientID == "" || c.Start.IsZero() || c.Duration <= 0 {
		return Decision{Outcome: RejectedMissingInput}
	}

	if rules.leadTime && c.Start.Before(p.Boundary()) {
		return Decision{Outcome: RejectedLeadTime}
	}

	advisory := false
	if week == nil || !Contains(week, c.Start, c.Duration) {
		if rules.availability == availabilityRequired {
			return Decision{Outcome: RejectedOutsideAvailability}
		}
		advisory = true
	}

	if b, found := Conflicting(snap.Bookings, c.TrainerID, c.Start, c.End(), c.ExcludeID); found {
		return Decision{Outcome: RejectedConflict, ConflictWith: b.ID}
	}

	return Decision{Outcome: Admitted, Advisory: advisory}
}

// EditLock decides whether role may still modify or cancel existing, judged
// by its stored start time alone.
func (p Policy) EditLock(role models.Role, existing models.Booking) Decision {
	if rulesFor(role).editLock && existing.StartTime.Before(p.Boundary()) {
		return Decision{Outcome: ClientEditLocked}
	}
	return Decision{Outcome: Pending}
}
