package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

// TeamService manages members and the content approval workflow.
type TeamService struct {
	src  *Sources
	feed *FeedService
}

func NewTeamService(src *Sources, feed *FeedService) *TeamService {
	return &TeamService{src: src, feed: feed}
}

func validRole(role string) bool {
	switch role {
	case model.RoleOwner, model.RoleAdmin, model.RoleEditor, model.RoleViewer:
		return true
	}
	return false
}

func (t *TeamService) Members(ctx context.Context, sc Scope) Result[[]*model.TeamMember] {
	return read(ctx, t.src, "team.members", sc, func(s store.Store, sc Scope) ([]*model.TeamMember, error) {
		return s.Members().List(ctx, sc.OrganizationID)
	})
}

// Invite adds a pending member. role defaults to editor.
func (t *TeamService) Invite(ctx context.Context, sc Scope, email, role string) (*model.TeamMember, error) {
	sc = t.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", model.ErrValidation, email)
	}
	if role == "" {
		role = model.RoleEditor
	}
	if !validRole(role) || role == model.RoleOwner {
		return nil, fmt.Errorf("%w: cannot invite with role %q", model.ErrValidation, role)
	}
	m, err := t.src.Store().Members().Add(ctx, &model.TeamMember{
		OrganizationID: sc.OrganizationID,
		Email:          addr.Address,
		FullName:       addr.Name,
		Role:           role,
		Status:         model.MemberPending,
	})
	if err != nil {
		return nil, err
	}
	t.feed.record(ctx, sc, "invited team member", m.Email, role)
	return m, nil
}

func (t *TeamService) member(ctx context.Context, sc Scope, id string) (*model.TeamMember, error) {
	m, err := t.src.Store().Members().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.OrganizationID != sc.OrganizationID {
		return nil, fmt.Errorf("member %s: %w", id, model.ErrNotFound)
	}
	return m, nil
}

func (t *TeamService) UpdateRole(ctx context.Context, sc Scope, id, role string) (*model.TeamMember, error) {
	sc = t.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}
	cur, err := t.member(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if cur.Role == model.RoleOwner || role == model.RoleOwner {
		return nil, fmt.Errorf("%w: ownership cannot be changed here", model.ErrValidation)
	}
	m, err := t.src.Store().Members().UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	t.feed.record(ctx, sc, "changed role", m.Email, role)
	return m, nil
}

// Remove deletes a membership. The organization owner cannot be removed.
func (t *TeamService) Remove(ctx context.Context, sc Scope, id string) error {
	sc = t.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return err
	}
	m, err := t.member(ctx, sc, id)
	if err != nil {
		return err
	}
	if m.Role == model.RoleOwner {
		return fmt.Errorf("%w: the owner cannot be removed", model.ErrValidation)
	}
	if err := t.src.Store().Members().Remove(ctx, id); err != nil {
		return err
	}
	t.feed.record(ctx, sc, "removed team member", m.Email, "")
	return nil
}

// PendingApprovals lists the events waiting for review.
func (t *TeamService) PendingApprovals(ctx context.Context, sc Scope) Result[[]*model.Event] {
	return read(ctx, t.src, "team.approvals", sc, func(s store.Store, sc Scope) ([]*model.Event, error) {
		return s.Events().List(ctx, store.EventFilter{
			OrganizationID: sc.OrganizationID,
			Statuses:       []model.EventStatus{model.StatusPending},
		})
	})
}

// Approve schedules a pending event and tells its author.
func (t *TeamService) Approve(ctx context.Context, sc Scope, eventID, comment string) (*model.Event, error) {
	detail := "approved content with no comment"
	if strings.TrimSpace(comment) != "" {
		detail = "approved content with comment"
	}
	return t.review(ctx, sc, eventID, model.StatusScheduled, comment, detail, "Content approved")
}

// RequestChanges sends a pending event back to draft with the reviewer's
// comment and tells its author.
func (t *TeamService) RequestChanges(ctx context.Context, sc Scope, eventID, comment string) (*model.Event, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: describe the changes needed", model.ErrValidation)
	}
	return t.review(ctx, sc, eventID, model.StatusDraft, comment, "requested changes to content: "+comment, "Changes requested")
}

func (t *TeamService) review(ctx context.Context, sc Scope, eventID string, status model.EventStatus, comment, detail, title string) (*model.Event, error) {
	sc = t.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	events := t.src.Store().Events()
	ev, err := events.Get(ctx, seriesID(eventID))
	if err != nil {
		return nil, err
	}
	if ev.OrganizationID != sc.OrganizationID {
		return nil, fmt.Errorf("event %s: %w", eventID, model.ErrNotFound)
	}
	if ev.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: event %s is %s, not pending", model.ErrConflict, ev.ID, ev.Status)
	}
	ev.Status = status
	ev.ReviewComment = strings.TrimSpace(comment)
	out, err := events.Update(ctx, ev)
	if err != nil {
		return nil, err
	}
	t.feed.record(ctx, sc, detail, out.ID, excerpt(out.Caption))
	if out.AuthorID != "" {
		body := fmt.Sprintf("%q is now %s.", excerpt(out.Caption), out.Status)
		if out.ReviewComment != "" {
			body += " " + out.ReviewComment
		}
		t.feed.notify(ctx, out.AuthorID, title, body)
	}
	return out, nil
}
