package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	base := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

	// Users
	email := "Owner-" + suffix + "@Example.test"
	u, err := s.Users().Create(ctx, &model.User{Email: email, PasswordHash: "h1"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("CreateUser: empty id")
	}
	if got, err := s.Users().GetByEmail(ctx, email); err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Email: email, PasswordHash: "h2"}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("CreateUser duplicate: want ErrConflict, got %v", err)
	}
	if err := s.Users().UpdatePassword(ctx, u.ID, "h3"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if got, _ := s.Users().Get(ctx, u.ID); got == nil || got.PasswordHash != "h3" {
		t.Fatalf("UpdatePassword: not applied: %v", got)
	}
	if _, err := s.Users().Get(ctx, "missing-"+suffix); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser missing: want ErrNotFound, got %v", err)
	}

	// Profiles
	if _, err := s.Profiles().Put(ctx, &model.Profile{ID: u.ID, Email: u.Email, FullName: "Owner"}); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	name := "Renamed"
	p, err := s.Profiles().Update(ctx, u.ID, model.ProfileUpdate{FullName: &name})
	if err != nil || p.FullName != "Renamed" || p.Email != u.Email {
		t.Fatalf("UpdateProfile: got=%v err=%v", p, err)
	}
	if _, err := s.Profiles().Update(ctx, "missing-"+suffix, model.ProfileUpdate{FullName: &name}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateProfile missing: want ErrNotFound, got %v", err)
	}

	// Organizations and members
	org, err := s.Organizations().Create(ctx, &model.Organization{Name: "Acme " + suffix, OwnerID: u.ID})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.SubscriptionPlan != "free" {
		t.Fatalf("CreateOrganization: plan=%q", org.SubscriptionPlan)
	}
	owner, err := s.Members().Add(ctx, &model.TeamMember{
		OrganizationID: org.ID, UserID: u.ID, Email: u.Email, Role: model.RoleOwner, Status: model.MemberActive, JoinedAt: base,
	})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	invite, err := s.Members().Add(ctx, &model.TeamMember{
		OrganizationID: org.ID, Email: "invitee-" + suffix + "@example.test", Role: model.RoleViewer, Status: model.MemberPending, JoinedAt: base.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AddMember invite: %v", err)
	}
	if _, err := s.Members().Add(ctx, &model.TeamMember{OrganizationID: org.ID, Email: invite.Email, Role: model.RoleEditor}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("AddMember duplicate: want ErrConflict, got %v", err)
	}
	if ms, err := s.Members().List(ctx, org.ID); err != nil || len(ms) != 2 || ms[0].ID != owner.ID {
		t.Fatalf("ListMembers: n=%d err=%v", len(ms), err)
	}
	if m, err := s.Members().UpdateRole(ctx, invite.ID, model.RoleEditor); err != nil || m.Role != model.RoleEditor {
		t.Fatalf("UpdateRole: got=%v err=%v", m, err)
	}
	got, err := s.Organizations().ForUser(ctx, u.ID)
	if err != nil || got.ID != org.ID || got.UserRole != model.RoleOwner {
		t.Fatalf("OrganizationForUser: got=%v err=%v", got, err)
	}
	if err := s.Members().Remove(ctx, invite.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := s.Members().Remove(ctx, invite.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("RemoveMember twice: want ErrNotFound, got %v", err)
	}

	// Accounts
	acct, err := s.Accounts().Create(ctx, &model.SocialAccount{
		OrganizationID: org.ID, Platform: model.PlatformInstagram, Username: "@acme", Status: model.AccountConnected,
		FollowerCount: 1200, RateLimit: model.Usage{Used: 10, Total: 200}, LastSync: base,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	acct.Status = model.AccountExpired
	acct.BrandVoice = &model.BrandVoice{Tone: "friendly", Keywords: "launch"}
	upd, err := s.Accounts().Update(ctx, acct)
	if err != nil || upd.Status != model.AccountExpired || upd.BrandVoice == nil || upd.BrandVoice.Tone != "friendly" {
		t.Fatalf("UpdateAccount: got=%v err=%v", upd, err)
	}
	if !upd.LastSync.Equal(base) || upd.RateLimit.Total != 200 {
		t.Fatalf("UpdateAccount: fields lost: %+v", upd)
	}
	if lst, err := s.Accounts().List(ctx, org.ID); err != nil || len(lst) != 1 {
		t.Fatalf("ListAccounts: n=%d err=%v", len(lst), err)
	}
	if err := s.Accounts().Delete(ctx, acct.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := s.Accounts().Get(ctx, acct.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetAccount deleted: want ErrNotFound, got %v", err)
	}

	// Events
	end := base.AddDate(0, 1, 0)
	mk := func(caption string, at time.Time, status model.EventStatus, rec *model.Recurrence) *model.Event {
		e, err := s.Events().Create(ctx, &model.Event{
			OrganizationID: org.ID, AuthorID: u.ID, Caption: caption, ScheduledDate: at,
			Platforms: []model.Platform{model.PlatformTwitter}, Type: model.TypePost, Status: status,
			Recurrence: rec,
		})
		if err != nil {
			t.Fatalf("CreateEvent %s: %v", caption, err)
		}
		return e
	}
	later := mk("later", base.Add(48*time.Hour), model.StatusScheduled, nil)
	early := mk("early", base.Add(-48*time.Hour), model.StatusDraft, nil)
	series := mk("series", base.Add(-72*time.Hour), model.StatusScheduled,
		&model.Recurrence{Frequency: model.FrequencyWeekly, Interval: 1, EndDate: &end})
	first := mk("first", base, model.StatusScheduled, nil)

	if _, err := s.Events().Create(ctx, &model.Event{ID: first.ID, Caption: "dup", ScheduledDate: base, Type: model.TypePost, Status: model.StatusDraft}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("CreateEvent duplicate id: want ErrConflict, got %v", err)
	}

	all, err := s.Events().List(ctx, store.EventFilter{OrganizationID: org.ID})
	if err != nil || len(all) != 4 {
		t.Fatalf("ListEvents: n=%d err=%v", len(all), err)
	}
	wantOrder := []string{series.ID, early.ID, first.ID, later.ID}
	for i, e := range all {
		if e.ID != wantOrder[i] {
			t.Fatalf("ListEvents order[%d]: got %s want %s", i, e.Caption, wantOrder[i])
		}
	}
	if all[0].Recurrence == nil || all[0].Recurrence.EndDate == nil || !all[0].Recurrence.EndDate.Equal(end) {
		t.Fatalf("ListEvents: recurrence not preserved: %+v", all[0].Recurrence)
	}

	ranged, err := s.Events().List(ctx, store.EventFilter{OrganizationID: org.ID, From: base, To: base.Add(24 * time.Hour)})
	if err != nil || len(ranged) != 2 || ranged[0].ID != series.ID || ranged[1].ID != first.ID {
		t.Fatalf("ListEvents range: n=%d err=%v", len(ranged), err)
	}
	drafts, err := s.Events().List(ctx, store.EventFilter{OrganizationID: org.ID, Statuses: []model.EventStatus{model.StatusDraft}})
	if err != nil || len(drafts) != 1 || drafts[0].ID != early.ID {
		t.Fatalf("ListEvents status: n=%d err=%v", len(drafts), err)
	}

	first.Caption = "first (edited)"
	first.Media = &model.Media{Thumbnail: "/media/a.png", Kind: "image"}
	first.Platforms = []model.Platform{model.PlatformTwitter, model.PlatformLinkedIn}
	edited, err := s.Events().Update(ctx, first)
	if err != nil || edited.Caption != "first (edited)" || edited.Media == nil || len(edited.Platforms) != 2 {
		t.Fatalf("UpdateEvent: got=%v err=%v", edited, err)
	}
	if !edited.ScheduledDate.Equal(base) {
		t.Fatalf("UpdateEvent: scheduled date changed: %v", edited.ScheduledDate)
	}
	if err := s.Events().Delete(ctx, later.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := s.Events().Update(ctx, later); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateEvent deleted: want ErrNotFound, got %v", err)
	}

	// Activities
	for i, action := range []string{"created", "approved", "published"} {
		if _, err := s.Activities().Create(ctx, &model.Activity{
			OrganizationID: org.ID, UserID: u.ID, Action: action, Target: "post", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}
	acts, err := s.Activities().List(ctx, org.ID, 2)
	if err != nil || len(acts) != 2 || acts[0].Action != "published" || acts[1].Action != "approved" {
		t.Fatalf("ListActivities: got=%v err=%v", acts, err)
	}

	// Notifications
	n1, err := s.Notifications().Create(ctx, &model.Notification{UserID: u.ID, Title: "one", CreatedAt: base})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if _, err := s.Notifications().Create(ctx, &model.Notification{UserID: u.ID, Title: "two", CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if err := s.Notifications().MarkRead(ctx, n1.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	ns, err := s.Notifications().List(ctx, u.ID)
	if err != nil || len(ns) != 2 || ns[0].Title != "two" || ns[0].Read || !ns[1].Read {
		t.Fatalf("ListNotifications: got=%v err=%v", ns, err)
	}
	if err := s.Notifications().MarkAllRead(ctx, u.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if ns, _ := s.Notifications().List(ctx, u.ID); len(ns) != 2 || !ns[0].Read {
		t.Fatalf("MarkAllRead: not applied")
	}

	// Analytics
	day := func(d int) time.Time { return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC) }
	row, err := s.Analytics().Put(ctx, &model.AnalyticsSummary{OrganizationID: org.ID, Platform: model.PlatformInstagram, Date: day(2), Reach: 10})
	if err != nil {
		t.Fatalf("PutAnalytics: %v", err)
	}
	if _, err := s.Analytics().Put(ctx, &model.AnalyticsSummary{OrganizationID: org.ID, Date: day(1), Reach: 5, EngagementRate: 4.5}); err != nil {
		t.Fatalf("PutAnalytics: %v", err)
	}
	row.Reach = 20
	if _, err := s.Analytics().Put(ctx, row); err != nil {
		t.Fatalf("PutAnalytics upsert: %v", err)
	}
	rows, err := s.Analytics().List(ctx, org.ID, day(1))
	if err != nil || len(rows) != 2 || !rows[0].Date.Equal(day(1)) || rows[0].EngagementRate != 4.5 || rows[1].Reach != 20 {
		t.Fatalf("ListAnalytics: got=%v err=%v", rows, err)
	}
	if rows, _ := s.Analytics().List(ctx, org.ID, day(2)); len(rows) != 1 {
		t.Fatalf("ListAnalytics since: n=%d", len(rows))
	}

	// Ads
	adAcct, err := s.Ads().PutAccount(ctx, &model.AdAccount{OrganizationID: org.ID, Network: "Google Ads", Name: "Search", Status: model.AdAccountConnected})
	if err != nil || adAcct.ID == "" || adAcct.CreatedAt.IsZero() {
		t.Fatalf("PutAdAccount: got=%v err=%v", adAcct, err)
	}
	if _, err := s.Ads().PutCampaign(ctx, &model.AdCampaign{OrganizationID: org.ID, AccountID: "missing-" + suffix, Name: "x", Status: model.AdCampaignActive}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("PutAdCampaign unknown account: want ErrNotFound, got %v", err)
	}
	camp, err := s.Ads().PutCampaign(ctx, &model.AdCampaign{OrganizationID: org.ID, AccountID: adAcct.ID, Name: "Leads", Status: model.AdCampaignActive})
	if err != nil {
		t.Fatalf("PutAdCampaign: %v", err)
	}
	camp.Status = model.AdCampaignPaused
	if _, err := s.Ads().PutCampaign(ctx, camp); err != nil {
		t.Fatalf("PutAdCampaign upsert: %v", err)
	}
	if cs, err := s.Ads().ListCampaigns(ctx, org.ID); err != nil || len(cs) != 1 || cs[0].Status != model.AdCampaignPaused || cs[0].AccountID != adAcct.ID {
		t.Fatalf("ListAdCampaigns: got=%v err=%v", cs, err)
	}
	if as, err := s.Ads().ListAccounts(ctx, org.ID); err != nil || len(as) != 1 || as[0].Network != "Google Ads" {
		t.Fatalf("ListAdAccounts: got=%v err=%v", as, err)
	}
	for d, spend := range map[int]float64{1: 10.5, 3: 20} {
		perf := &model.AdPerformance{OrganizationID: org.ID, AccountID: adAcct.ID, CampaignID: camp.ID, Date: day(d),
			Impressions: 1000, Clicks: 40, Conversions: 3, Spend: spend, Revenue: spend * 4}
		if _, err := s.Ads().PutPerformance(ctx, perf); err != nil {
			t.Fatalf("PutAdPerformance: %v", err)
		}
	}
	perf, err := s.Ads().ListPerformance(ctx, org.ID, day(1))
	if err != nil || len(perf) != 2 || !perf[0].Date.Equal(day(1)) || perf[0].Spend != 10.5 || perf[1].Revenue != 80 {
		t.Fatalf("ListAdPerformance: got=%v err=%v", perf, err)
	}
	if perf, _ := s.Ads().ListPerformance(ctx, org.ID, day(2)); len(perf) != 1 || perf[0].CampaignID != camp.ID {
		t.Fatalf("ListAdPerformance since: got=%v", perf)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
