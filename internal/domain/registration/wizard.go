package registration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"churchconsole/internal/domain/member"
)

// Step numbers of the wizard.
const (
	StepPersonal  Step = 1
	StepResidence Step = 2
	StepFamily    Step = 3
	StepSpiritual Step = 4
)

// Mode constants
const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// Domain errors
var (
	ErrInvalidStep       = errors.New("step must be between 1 and 4")
	ErrChildIndex        = errors.New("child index out of range")
	ErrEmptyWizardID     = errors.New("wizard id is required")
	ErrEditWithoutMember = errors.New("edit mode requires an existing member")
)

// Step is a wizard page.
type Step int

// Title returns the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepPersonal:
		return "Personal Info"
	case StepResidence:
		return "Residence & Work"
	case StepFamily:
		return "Family"
	case StepSpiritual:
		return "Spiritual & Pledge"
	}
	return ""
}

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool {
	return s >= StepPersonal && s <= StepSpiritual
}

// Mode says whether the wizard creates a member or edits one.
type Mode string

// ChildDraft is one editable child row.
type ChildDraft struct {
	FullName      string `json:"full_name"`
	DateOfBirth   string `json:"date_of_birth"`
	SchoolOrWork  string `json:"school_or_work"`
	ClassOrCourse string `json:"class_or_course"`
}

// Draft holds the member fields being edited. DOB is wizard-only and is
// reduced to a year when the payload is built.
type Draft struct {
	MemberType string `json:"member_type"`
	JoinedDate string `json:"joined_date"`

	FullName     string `json:"full_name"`
	AlsoKnownAs  string `json:"also_known_as"`
	Gender       string `json:"gender"`
	DOB          string `json:"dob"`
	OtherDetails string `json:"other_details"`
	Phone        string `json:"phone"`
	NationalID   string `json:"national_id"`
	Email        string `json:"email"`

	Estate              string `json:"estate"`
	Phase               string `json:"phase"`
	Plot                string `json:"plot"`
	Door                string `json:"door"`
	StayingWith         string `json:"staying_with"`
	StayingWithRelation string `json:"staying_with_relation"`
	County              string `json:"county"`
	SubCounty           string `json:"sub_county"`
	Ward                string `json:"ward"`
	Village             string `json:"village"`
	EducationLevel      string `json:"education_level"`
	EducationCourse     string `json:"education_course"`
	WorkPlace           string `json:"work_place"`
	Occupation          string `json:"occupation"`
	WorkArea            string `json:"work_area"`

	MaritalStatus     string       `json:"marital_status"`
	SpouseName        string       `json:"spouse_name"`
	SpousePhone       string       `json:"spouse_phone"`
	SpouseWorkplace   string       `json:"spouse_workplace"`
	SpouseOccupation  string       `json:"spouse_occupation"`
	FatherName        string       `json:"father_name"`
	MotherName        string       `json:"mother_name"`
	NextOfKinName     string       `json:"next_of_kin_name"`
	NextOfKinRelation string       `json:"next_of_kin_relation"`
	NextOfKinPhone    string       `json:"next_of_kin_phone"`
	Children          []ChildDraft `json:"children"`

	Saved            bool   `json:"saved"`
	SavedDate        string `json:"saved_date"`
	SavedWhere       string `json:"saved_where"`
	Baptized         bool   `json:"baptized"`
	BaptizedDate     string `json:"baptized_date"`
	PreviousChurch   string `json:"previous_church"`
	PreviousMinistry string `json:"previous_ministry"`
	DesiredMinistry  string `json:"desired_ministry"`
	InfluenceReason  string `json:"influence_reason"`
	PrayerNeed       string `json:"prayer_need"`
}

// PledgeAttestation is the signed membership pledge. It is never sent to the backend.
type PledgeAttestation struct {
	SignatureName string `json:"signature_name"`
	SignatureID   string `json:"signature_id"`
	Agreed        bool   `json:"pledge_agreed"`
}

// Photo is a pending passport photo held until the member record exists.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Wizard is one in-progress registration or edit.
type Wizard struct {
	ID       string
	Mode     Mode
	MemberID int
	Step     Step
	Draft    Draft
	Pledge   PledgeAttestation
	Photo    *Photo
	Errors   ErrorSet

	lastSchema Schema
}

// Open starts a wizard. A nil initial opens add mode with member_type NEW;
// otherwise the wizard edits initial and is pre-populated from it.
// PRE: id is non-empty
// POST: Step is 1, Errors is empty
func Open(id string, initial *member.Member) (*Wizard, error) {
	if id == "" {
		return nil, ErrEmptyWizardID
	}
	w := &Wizard{ID: id, Step: StepPersonal, Errors: ErrorSet{}}
	if initial == nil {
		w.Mode = ModeAdd
		w.Draft = Draft{MemberType: member.TypeNew, Children: []ChildDraft{}}
		return w, nil
	}
	if initial.ID <= 0 {
		return nil, ErrEditWithoutMember
	}
	w.Mode = ModeEdit
	w.MemberID = initial.ID
	w.Draft, w.Pledge = FromMember(*initial)
	return w, nil
}

// IsEdit reports whether the wizard updates an existing member.
func (w *Wizard) IsEdit() bool {
	return w.Mode == ModeEdit
}

// Next validates the current step and advances.
// PRE: none
// POST: on success Step is min(Step+1, 4) and Errors is empty; otherwise Step
// is unchanged and Errors holds the failures
func (w *Wizard) Next() bool {
	schema := SchemaFor(w.Step)
	errs := Validate(schema, w.Draft, w.Pledge)
	w.Errors = errs
	w.lastSchema = schema
	if !errs.Empty() {
		return false
	}
	if w.Step < StepSpiritual {
		w.Step++
	}
	return true
}

// Back moves to the previous step without validation.
// POST: Step is max(Step-1, 1)
func (w *Wizard) Back() {
	if w.Step > StepPersonal {
		w.Step--
	}
}

// GoTo jumps directly to step without validation.
// PRE: step is 1..4
// POST: Step == step
func (w *Wizard) GoTo(step Step) error {
	if !step.Valid() {
		return ErrInvalidStep
	}
	w.Step = step
	return nil
}

// Apply merges edited fields into the draft and attestation. Keys absent from
// the JSON keep their current values. In edit mode member_type is fixed.
// PRE: draftJSON and pledgeJSON are JSON objects or empty
// POST: fields present in the input are replaced; on error nothing changes
func (w *Wizard) Apply(draftJSON, pledgeJSON []byte) error {
	next := w.Draft
	next.Children = nil
	if len(draftJSON) > 0 {
		if err := decodeStrict(draftJSON, &next); err != nil {
			return fmt.Errorf("draft: %w", err)
		}
		var sent struct {
			Children *[]ChildDraft `json:"children"`
		}
		if err := json.Unmarshal(draftJSON, &sent); err != nil {
			return fmt.Errorf("draft: %w", err)
		}
		if sent.Children == nil {
			next.Children = w.Draft.Children
		}
	} else {
		next.Children = w.Draft.Children
	}

	pledge := w.Pledge
	if len(pledgeJSON) > 0 {
		if err := decodeStrict(pledgeJSON, &pledge); err != nil {
			return fmt.Errorf("pledge: %w", err)
		}
	}

	if w.IsEdit() {
		next.MemberType = w.Draft.MemberType
	}
	w.Draft = next
	w.Pledge = pledge
	if !w.Errors.Empty() {
		w.Errors = Validate(w.lastSchema, w.Draft, w.Pledge)
	}
	return nil
}

// AppendChild adds an empty child row and returns its index.
func (w *Wizard) AppendChild() int {
	w.Draft.Children = append(w.Draft.Children, ChildDraft{})
	return len(w.Draft.Children) - 1
}

// RemoveChild deletes the child row at index i. Remaining rows keep their order.
// PRE: 0 <= i < len(Children)
func (w *Wizard) RemoveChild(i int) error {
	if i < 0 || i >= len(w.Draft.Children) {
		return ErrChildIndex
	}
	w.Draft.Children = append(w.Draft.Children[:i:i], w.Draft.Children[i+1:]...)
	return nil
}

// SpouseFieldsVisible reports whether the spouse fields are shown.
// Changing marital status never clears spouse values from the draft.
func (w *Wizard) SpouseFieldsVisible() bool {
	return w.Draft.MaritalStatus == member.MaritalMarried
}

// SavedFieldsVisible reports whether the salvation date/place fields are shown.
func (w *Wizard) SavedFieldsVisible() bool {
	return w.Draft.Saved
}

// SetPhoto holds p for upload after the member record is saved.
func (w *Wizard) SetPhoto(p *Photo) {
	w.Photo = p
}

// CheckSubmittable runs the submission rules.
// POST: returns *ValidationError with all failing fields, or nil; Errors is updated
func (w *Wizard) CheckSubmittable() error {
	schema := SubmitSchema()
	errs := Validate(schema, w.Draft, w.Pledge)
	w.Errors = errs
	w.lastSchema = schema
	if errs.Empty() {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// FromMember builds the edit-mode draft and attestation for m.
// The day and month of birth are not stored, so dob becomes January 1st.
func FromMember(m member.Member) (Draft, PledgeAttestation) {
	d := Draft{
		MemberType:          m.MemberType,
		JoinedDate:          m.JoinedDate,
		FullName:            m.FullName,
		AlsoKnownAs:         m.AlsoKnownAs,
		Gender:              m.Gender,
		OtherDetails:        m.OtherDetails,
		Phone:               m.Phone,
		NationalID:          m.NationalID,
		Email:               m.Email,
		Estate:              m.Estate,
		Phase:               m.Phase,
		Plot:                m.Plot,
		Door:                m.Door,
		StayingWith:         m.StayingWith,
		StayingWithRelation: m.StayingWithRelation,
		County:              m.County,
		SubCounty:           m.SubCounty,
		Ward:                m.Ward,
		Village:             m.Village,
		EducationLevel:      m.EducationLevel,
		EducationCourse:     m.EducationCourse,
		WorkPlace:           m.WorkPlace,
		Occupation:          m.Occupation,
		WorkArea:            m.WorkArea,
		MaritalStatus:       m.MaritalStatus,
		SpouseName:          m.SpouseName,
		SpousePhone:         m.SpousePhone,
		SpouseWorkplace:     m.SpouseWorkplace,
		SpouseOccupation:    m.SpouseOccupation,
		FatherName:          m.FatherName,
		MotherName:          m.MotherName,
		NextOfKinName:       m.NextOfKinName,
		NextOfKinRelation:   m.NextOfKinRelation,
		NextOfKinPhone:      m.NextOfKinPhone,
		Saved:               m.Saved,
		SavedDate:           m.SavedDate,
		SavedWhere:          m.SavedWhere,
		Baptized:            m.Baptized,
		BaptizedDate:        m.BaptizedDate,
		PreviousChurch:      m.PreviousChurch,
		PreviousMinistry:    m.PreviousMinistry,
		DesiredMinistry:     m.DesiredMinistry,
		InfluenceReason:     m.InfluenceReason,
		PrayerNeed:          m.PrayerNeed,
		Children:            make([]ChildDraft, 0, len(m.Children)),
	}
	if m.YearOfBirth != nil {
		d.DOB = fmt.Sprintf("%04d-01-01", *m.YearOfBirth)
	}
	for _, c := range m.Children {
		d.Children = append(d.Children, ChildDraft{
			FullName:      c.FullName,
			DateOfBirth:   c.DateOfBirth,
			SchoolOrWork:  c.SchoolOrWork,
			ClassOrCourse: c.ClassOrCourse,
		})
	}
	p := PledgeAttestation{
		SignatureName: m.FullName,
		SignatureID:   m.NationalID,
		Agreed:        true,
	}
	return d, p
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
