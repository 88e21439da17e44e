package registration

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"churchconsole/internal/domain/member"
)

var validate = validator.New()

// ErrorSet maps a field name to the message shown beside it.
type ErrorSet map[string]string

// Empty reports whether no field failed.
func (e ErrorSet) Empty() bool {
	return len(e) == 0
}

// Fields returns the failing field names in sorted order.
func (e ErrorSet) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ValidationError carries field-level failures. No network call is made when
// one is returned.
type ValidationError struct {
	Fields ErrorSet
}

// Error implements error.
func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields.Fields(), ", ")
}

// FieldErrors returns the failures keyed by field name.
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Fields
}

// Rule is one required-field predicate.
type Rule struct {
	Field   string
	Message string
	Check   func(d *Draft, p *PledgeAttestation) bool
}

// Schema is an ordered list of rules evaluated together.
type Schema []Rule

// PersonalSchema gates leaving step 1.
var PersonalSchema = Schema{
	{
		Field:   "full_name",
		Message: "Full name is required",
		Check:   func(d *Draft, _ *PledgeAttestation) bool { return strings.TrimSpace(d.FullName) != "" },
	},
	{
		Field:   "phone",
		Message: "Phone number is required",
		Check:   func(d *Draft, _ *PledgeAttestation) bool { return strings.TrimSpace(d.Phone) != "" },
	},
	{
		Field:   "member_type",
		Message: "Member type must be NEW or OLD",
		Check: func(d *Draft, _ *PledgeAttestation) bool {
			return validate.Var(d.MemberType, "required,oneof="+strings.Join(member.ValidMemberTypes, " ")) == nil
		},
	},
}

// PledgeSchema is the membership pledge attestation checked at submission.
var PledgeSchema = Schema{
	{
		Field:   "pledge_agreed",
		Message: "You must agree to the membership pledge",
		Check:   func(_ *Draft, p *PledgeAttestation) bool { return p.Agreed },
	},
	{
		Field:   "signature_name",
		Message: "Signature name is required",
		Check:   func(_ *Draft, p *PledgeAttestation) bool { return strings.TrimSpace(p.SignatureName) != "" },
	},
	{
		Field:   "signature_id",
		Message: "ID number is required",
		Check:   func(_ *Draft, p *PledgeAttestation) bool { return strings.TrimSpace(p.SignatureID) != "" },
	},
}

// SchemaFor returns the rules that gate leaving step. Only step 1 has any.
func SchemaFor(step Step) Schema {
	if step == StepPersonal {
		return PersonalSchema
	}
	return nil
}

// SubmitSchema returns the rules checked before any submission call.
func SubmitSchema() Schema {
	out := make(Schema, 0, len(PersonalSchema)+len(PledgeSchema))
	out = append(out, PersonalSchema...)
	return append(out, PledgeSchema...)
}

// Validate evaluates schema against the draft and attestation.
// PRE: none
// POST: Returns one message per failing field; an empty set means valid
// INVARIANT: d and p are not mutated
func Validate(schema Schema, d Draft, p PledgeAttestation) ErrorSet {
	errs := ErrorSet{}
	for _, r := range schema {
		if _, seen := errs[r.Field]; seen {
			continue
		}
		if !r.Check(&d, &p) {
			errs[r.Field] = r.Message
		}
	}
	return errs
}
