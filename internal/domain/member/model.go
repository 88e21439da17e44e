package member

import (
	"errors"
	"strings"
	"time"
)

// Member type constants. The type is set once when the record is created.
const (
	TypeNew = "NEW"
	TypeOld = "OLD"
)

// Gender constants
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// Marital status constants
const (
	MaritalSingle   = "SINGLE"
	MaritalMarried  = "MARRIED"
	MaritalWidowed  = "WIDOWED"
	MaritalDivorced = "DIVORCED"
)

// ValidMemberTypes contains all valid member type values.
var ValidMemberTypes = []string{TypeNew, TypeOld}

// ValidMaritalStatuses contains all valid marital status values.
var ValidMaritalStatuses = []string{MaritalSingle, MaritalMarried, MaritalWidowed, MaritalDivorced}

// Domain errors
var (
	ErrInvalidMemberID   = errors.New("member id must be positive")
	ErrInvalidMemberType = errors.New("member_type must be one of: NEW, OLD")
	ErrNotFound          = errors.New("member not found")
)

// Child is a dependant owned by exactly one member.
type Child struct {
	ID            int    `json:"id,omitempty"`
	FullName      string `json:"full_name"`
	DateOfBirth   string `json:"date_of_birth"`
	SchoolOrWork  string `json:"school_or_work"`
	ClassOrCourse string `json:"class_or_course"`
}

// Member is the record as the backend returns it.
// Nullable text columns decode to the empty string.
type Member struct {
	ID         int    `json:"id"`
	MemberID   string `json:"member_id"`
	MemberType string `json:"member_type"`
	JoinedDate string `json:"joined_date"`

	// Personal
	FullName      string `json:"full_name"`
	AlsoKnownAs   string `json:"also_known_as"`
	PassportPhoto string `json:"passport_photo"`
	Gender        string `json:"gender"`
	YearOfBirth   *int   `json:"year_of_birth"`
	OtherDetails  string `json:"other_details"`
	Phone         string `json:"phone"`
	NationalID    string `json:"national_id"`
	Email         string `json:"email"`

	// Residence and work
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

	// Family
	MaritalStatus     string  `json:"marital_status"`
	SpouseName        string  `json:"spouse_name"`
	SpousePhone       string  `json:"spouse_phone"`
	SpouseWorkplace   string  `json:"spouse_workplace"`
	SpouseOccupation  string  `json:"spouse_occupation"`
	FatherName        string  `json:"father_name"`
	MotherName        string  `json:"mother_name"`
	NextOfKinName     string  `json:"next_of_kin_name"`
	NextOfKinRelation string  `json:"next_of_kin_relation"`
	NextOfKinPhone    string  `json:"next_of_kin_phone"`
	Children          []Child `json:"children"`

	// Spiritual
	Saved            bool   `json:"saved"`
	SavedDate        string `json:"saved_date"`
	SavedWhere       string `json:"saved_where"`
	Baptized         bool   `json:"baptized"`
	BaptizedDate     string `json:"baptized_date"`
	PreviousChurch   string `json:"previous_church"`
	PreviousMinistry string `json:"previous_ministry"`
	MainMinistry     *int   `json:"main_ministry"`
	MainMinistryName string `json:"main_ministry_name"`
	DesiredMinistry  string `json:"desired_ministry"`
	InfluenceReason  string `json:"influence_reason"`
	PrayerNeed       string `json:"prayer_need"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNew returns true if the member was registered as a new member.
// INVARIANT: Member fields are not mutated
func (m *Member) IsNew() bool {
	return m.MemberType == TypeNew
}

// IsMarried returns true if the marital status is MARRIED.
// INVARIANT: Member fields are not mutated
func (m *Member) IsMarried() bool {
	return m.MaritalStatus == MaritalMarried
}

// MatchesQuery reports whether the member's name, member id or phone contains q.
// Comparison is case-insensitive; an empty query matches everything.
func (m *Member) MatchesQuery(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.FullName), q) ||
		strings.Contains(strings.ToLower(m.MemberID), q) ||
		strings.Contains(m.Phone, q)
}

// ChildPayload is the outbound representation of a child row.
type ChildPayload struct {
	FullName      *string `json:"full_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	SchoolOrWork  *string `json:"school_or_work"`
	ClassOrCourse *string `json:"class_or_course"`
}

// Payload is the outbound create/update body.
// Optional text fields are pointers so an absent value is sent as null.
type Payload struct {
	MemberType string  `json:"member_type"`
	JoinedDate *string `json:"joined_date"`

	FullName     *string `json:"full_name"`
	AlsoKnownAs  *string `json:"also_known_as"`
	Gender       *string `json:"gender"`
	YearOfBirth  *int    `json:"year_of_birth,omitempty"`
	OtherDetails *string `json:"other_details"`
	Phone        *string `json:"phone"`
	NationalID   *string `json:"national_id"`
	Email        *string `json:"email"`

	Estate              *string `json:"estate"`
	Phase               *string `json:"phase"`
	Plot                *string `json:"plot"`
	Door                *string `json:"door"`
	StayingWith         *string `json:"staying_with"`
	StayingWithRelation *string `json:"staying_with_relation"`
	County              *string `json:"county"`
	SubCounty           *string `json:"sub_county"`
	Ward                *string `json:"ward"`
	Village             *string `json:"village"`
	EducationLevel      *string `json:"education_level"`
	EducationCourse     *string `json:"education_course"`
	WorkPlace           *string `json:"work_place"`
	Occupation          *string `json:"occupation"`
	WorkArea            *string `json:"work_area"`

	MaritalStatus     *string        `json:"marital_status"`
	SpouseName        *string        `json:"spouse_name"`
	SpousePhone       *string        `json:"spouse_phone"`
	SpouseWorkplace   *string        `json:"spouse_workplace"`
	SpouseOccupation  *string        `json:"spouse_occupation"`
	FatherName        *string        `json:"father_name"`
	MotherName        *string        `json:"mother_name"`
	NextOfKinName     *string        `json:"next_of_kin_name"`
	NextOfKinRelation *string        `json:"next_of_kin_relation"`
	NextOfKinPhone    *string        `json:"next_of_kin_phone"`
	Children          []ChildPayload `json:"children,omitempty"`

	Saved            bool    `json:"saved"`
	SavedDate        *string `json:"saved_date"`
	SavedWhere       *string `json:"saved_where"`
	Baptized         bool    `json:"baptized"`
	BaptizedDate     *string `json:"baptized_date"`
	PreviousChurch   *string `json:"previous_church"`
	PreviousMinistry *string `json:"previous_ministry"`
	DesiredMinistry  *string `json:"desired_ministry"`
	InfluenceReason  *string `json:"influence_reason"`
	PrayerNeed       *string `json:"prayer_need"`
}

// MinistryAssignment is the partial update body that sets a member's main ministry.
// A nil Ministry clears the assignment.
type MinistryAssignment struct {
	Ministry *int `json:"main_ministry"`
}

// ValidateID checks that id refers to a persisted member.
// PRE: none
// POST: Returns ErrInvalidMemberID if id is not positive
func ValidateID(id int) error {
	if id <= 0 {
		return ErrInvalidMemberID
	}
	return nil
}

// IsValidMemberType reports whether t is NEW or OLD.
func IsValidMemberType(t string) bool {
	for _, v := range ValidMemberTypes {
		if v == t {
			return true
		}
	}
	return false
}
