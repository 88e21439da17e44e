package registration

import (
	"strconv"
	"time"

	"churchconsole/internal/domain/member"
)

// BuildPayload maps a draft onto the backend body.
// dob is reduced to year_of_birth and never sent. Every empty string becomes
// null, including inside child rows. Spouse fields are only sent for MARRIED.
// Children are omitted when there are none.
// INVARIANT: d is not mutated
func BuildPayload(d Draft) member.Payload {
	p := member.Payload{
		MemberType:          d.MemberType,
		JoinedDate:          nullable(d.JoinedDate),
		FullName:            nullable(d.FullName),
		AlsoKnownAs:         nullable(d.AlsoKnownAs),
		Gender:              nullable(d.Gender),
		YearOfBirth:         YearOfBirth(d.DOB),
		OtherDetails:        nullable(d.OtherDetails),
		Phone:               nullable(d.Phone),
		NationalID:          nullable(d.NationalID),
		Email:               nullable(d.Email),
		Estate:              nullable(d.Estate),
		Phase:               nullable(d.Phase),
		Plot:                nullable(d.Plot),
		Door:                nullable(d.Door),
		StayingWith:         nullable(d.StayingWith),
		StayingWithRelation: nullable(d.StayingWithRelation),
		County:              nullable(d.County),
		SubCounty:           nullable(d.SubCounty),
		Ward:                nullable(d.Ward),
		Village:             nullable(d.Village),
		EducationLevel:      nullable(d.EducationLevel),
		EducationCourse:     nullable(d.EducationCourse),
		WorkPlace:           nullable(d.WorkPlace),
		Occupation:          nullable(d.Occupation),
		WorkArea:            nullable(d.WorkArea),
		MaritalStatus:       nullable(d.MaritalStatus),
		FatherName:          nullable(d.FatherName),
		MotherName:          nullable(d.MotherName),
		NextOfKinName:       nullable(d.NextOfKinName),
		NextOfKinRelation:   nullable(d.NextOfKinRelation),
		NextOfKinPhone:      nullable(d.NextOfKinPhone),
		Saved:               d.Saved,
		SavedDate:           nullable(d.SavedDate),
		SavedWhere:          nullable(d.SavedWhere),
		Baptized:            d.Baptized,
		BaptizedDate:        nullable(d.BaptizedDate),
		PreviousChurch:      nullable(d.PreviousChurch),
		PreviousMinistry:    nullable(d.PreviousMinistry),
		DesiredMinistry:     nullable(d.DesiredMinistry),
		InfluenceReason:     nullable(d.InfluenceReason),
		PrayerNeed:          nullable(d.PrayerNeed),
	}
	if d.MaritalStatus == member.MaritalMarried {
		p.SpouseName = nullable(d.SpouseName)
		p.SpousePhone = nullable(d.SpousePhone)
		p.SpouseWorkplace = nullable(d.SpouseWorkplace)
		p.SpouseOccupation = nullable(d.SpouseOccupation)
	}
	for _, c := range d.Children {
		p.Children = append(p.Children, member.ChildPayload{
			FullName:      nullable(c.FullName),
			DateOfBirth:   nullable(c.DateOfBirth),
			SchoolOrWork:  nullable(c.SchoolOrWork),
			ClassOrCourse: nullable(c.ClassOrCourse),
		})
	}
	return p
}

// YearOfBirth extracts the year from a date of birth. It accepts a calendar
// date, an RFC 3339 timestamp or a bare year, and returns nil otherwise.
func YearOfBirth(dob string) *int {
	if dob == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, dob); err == nil {
			y := t.Year()
			return &y
		}
	}
	if len(dob) == 4 {
		if y, err := strconv.Atoi(dob); err == nil && y > 0 {
			return &y
		}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
