package orchestrators

import (
	"context"
	"log/slog"

	"churchconsole/internal/application/inputcheck"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/ministry"
)

// AssignMinistryAPI sets a member's main ministry.
type AssignMinistryAPI interface {
	AssignMinistry(ctx context.Context, id int, ministryID *int) (member.Member, error)
}

// AssignMinistryInput carries the member and the ministry to assign. A nil
// MinistryID clears the assignment.
type AssignMinistryInput struct {
	MemberID   int
	MinistryID *int
}

// ExecuteAssignMinistry assigns or clears a member's main ministry.
// PRE: MemberID > 0; MinistryID is nil or > 0
// POST: Returns the updated member
func ExecuteAssignMinistry(ctx context.Context, input AssignMinistryInput, api AssignMinistryAPI) (member.Member, error) {
	if err := member.ValidateID(input.MemberID); err != nil {
		return member.Member{}, err
	}
	if input.MinistryID != nil && *input.MinistryID <= 0 {
		return member.Member{}, ministry.ErrInvalidID
	}
	m, err := api.AssignMinistry(ctx, input.MemberID, input.MinistryID)
	if err != nil {
		return member.Member{}, err
	}
	slog.Info("member_event", "event", "ministry_assigned", "member_id", m.MemberID, "ministry", m.MainMinistryName)
	return m, nil
}

// CreateMinistryAPI creates ministries.
type CreateMinistryAPI interface {
	CreateMinistry(ctx context.Context, m ministry.NewMinistry) (ministry.Ministry, error)
}

// ExecuteCreateMinistry validates and creates a ministry.
// PRE: input passes ministry.NewMinistry validation
// POST: Returns the stored ministry
func ExecuteCreateMinistry(ctx context.Context, input ministry.NewMinistry, api CreateMinistryAPI) (ministry.Ministry, error) {
	if err := inputcheck.Struct(&input); err != nil {
		return ministry.Ministry{}, err
	}
	if err := input.Validate(); err != nil {
		return ministry.Ministry{}, err
	}
	m, err := api.CreateMinistry(ctx, input)
	if err != nil {
		return ministry.Ministry{}, err
	}
	slog.Info("ministry_event", "event", "ministry_created", "ministry_id", m.ID, "name", m.Name)
	return m, nil
}
