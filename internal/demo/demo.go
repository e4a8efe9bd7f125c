// Package demo holds the sample workspace served when no backend is
// configured, and seeds it into a store.
package demo

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"socialsync/internal/model"
	"socialsync/internal/store"
	"socialsync/internal/store/memory"
)

// Password signs in the demo user.
const Password = "socialsync-demo"

const (
	OrganizationID = "demo-org"
	UserID         = "demo-user"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type usage struct {
	Used  int `yaml:"used"`
	Total int `yaml:"total"`
}

type fixtures struct {
	Organization struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Plan string `yaml:"plan"`
	} `yaml:"organization"`
	User struct {
		ID       string `yaml:"id"`
		Email    string `yaml:"email"`
		FullName string `yaml:"full_name"`
		Role     string `yaml:"role"`
	} `yaml:"user"`
	Members []struct {
		ID     string `yaml:"id"`
		UserID string `yaml:"user_id"`
		Email  string `yaml:"email"`
		Name   string `yaml:"name"`
		Role   string `yaml:"role"`
		Status string `yaml:"status"`
		Joined string `yaml:"joined"`
	} `yaml:"members"`
	Events []struct {
		ID         string            `yaml:"id"`
		Caption    string            `yaml:"caption"`
		At         string            `yaml:"at"`
		Platforms  []model.Platform  `yaml:"platforms"`
		Type       model.EventType   `yaml:"type"`
		Status     model.EventStatus `yaml:"status"`
		Media      *model.Media      `yaml:"media"`
		Recurrence *struct {
			Frequency model.Frequency `yaml:"frequency"`
			Interval  int             `yaml:"interval"`
			EndDate   string          `yaml:"end_date"`
			Count     int             `yaml:"count"`
		} `yaml:"recurrence"`
	} `yaml:"events"`
	Accounts []struct {
		ID             string              `yaml:"id"`
		Platform       model.Platform      `yaml:"platform"`
		Username       string              `yaml:"username"`
		Status         model.AccountStatus `yaml:"status"`
		SyncedAgo      time.Duration       `yaml:"synced_ago"`
		Followers      int                 `yaml:"followers"`
		PostsThisMonth int                 `yaml:"posts_this_month"`
		RateLimit      usage               `yaml:"rate_limit"`
		DailyPosts     usage               `yaml:"daily_posts"`
		BrandVoice     *struct {
			Tone           string `yaml:"tone"`
			Style          string `yaml:"style"`
			CustomPrompt   string `yaml:"custom_prompt"`
			Keywords       string `yaml:"keywords"`
			TargetAudience string `yaml:"target_audience"`
		} `yaml:"brand_voice"`
	} `yaml:"accounts"`
	Activities []struct {
		User   string        `yaml:"user"`
		Action string        `yaml:"action"`
		Target string        `yaml:"target"`
		Detail string        `yaml:"detail"`
		Ago    time.Duration `yaml:"ago"`
	} `yaml:"activities"`
	Notifications []struct {
		Title string        `yaml:"title"`
		Body  string        `yaml:"body"`
		Ago   time.Duration `yaml:"ago"`
		Read  bool          `yaml:"read"`
	} `yaml:"notifications"`
	Engagement map[model.Platform][]int `yaml:"engagement"`
	Ads        []struct {
		ID        string                `yaml:"id"`
		Network   string                `yaml:"network"`
		Name      string                `yaml:"name"`
		Status    model.AdAccountStatus `yaml:"status"`
		Campaigns []struct {
			ID     string                 `yaml:"id"`
			Name   string                 `yaml:"name"`
			Status model.AdCampaignStatus `yaml:"status"`
			Days   []struct {
				Impressions int     `yaml:"impressions"`
				Clicks      int     `yaml:"clicks"`
				Conversions int     `yaml:"conversions"`
				Spend       float64 `yaml:"spend"`
				Revenue     float64 `yaml:"revenue"`
			} `yaml:"days"`
		} `yaml:"campaigns"`
	} `yaml:"ads"`
}

// Dataset is the demo workspace materialized for a given clock.
type Dataset struct {
	User          model.User
	Profile       model.Profile
	Organization  model.Organization
	Members       []model.TeamMember
	Events        []model.Event
	Accounts      []model.SocialAccount
	Activities    []model.Activity
	Notifications []model.Notification
	Analytics     []model.AnalyticsSummary
	AdAccounts    []model.AdAccount
	AdCampaigns   []model.AdCampaign
	AdPerformance []model.AdPerformance
}

// Load builds the dataset. Relative timestamps are computed from now and
// calendar dates are read in loc.
func Load(now time.Time, loc *time.Location) (*Dataset, error) {
	if loc == nil {
		loc = time.UTC
	}
	var fx fixtures
	if err := yaml.Unmarshal(fixturesYAML, &fx); err != nil {
		return nil, fmt.Errorf("demo: decode fixtures: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("demo: hash password: %w", err)
	}
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, loc)

	d := &Dataset{
		User: model.User{ID: fx.User.ID, Email: fx.User.Email, PasswordHash: string(hash), CreatedAt: created},
		Profile: model.Profile{
			ID: fx.User.ID, Email: fx.User.Email, FullName: fx.User.FullName, Role: fx.User.Role,
			CreatedAt: created, UpdatedAt: created,
		},
		Organization: model.Organization{
			ID: fx.Organization.ID, Name: fx.Organization.Name, OwnerID: fx.User.ID,
			SubscriptionPlan: fx.Organization.Plan, CreatedAt: created,
		},
	}

	memberIDs := map[string]string{}
	for _, m := range fx.Members {
		joined, err := time.ParseInLocation("2006-01-02", m.Joined, loc)
		if err != nil {
			return nil, fmt.Errorf("demo: member %s: %w", m.ID, err)
		}
		d.Members = append(d.Members, model.TeamMember{
			ID: m.ID, OrganizationID: d.Organization.ID, UserID: m.UserID, Email: m.Email,
			FullName: m.Name, Role: m.Role, Status: m.Status, JoinedAt: joined,
		})
		memberIDs[m.Name] = m.ID
	}

	for _, e := range fx.Events {
		at, err := time.ParseInLocation("2006-01-02 15:04", e.At, loc)
		if err != nil {
			return nil, fmt.Errorf("demo: event %s: %w", e.ID, err)
		}
		ev := model.Event{
			ID: e.ID, OrganizationID: d.Organization.ID, AuthorID: d.User.ID, Caption: e.Caption,
			ScheduledDate: at, Platforms: e.Platforms, Type: e.Type, Status: e.Status, Media: e.Media,
			CreatedAt: created, UpdatedAt: created,
		}
		if r := e.Recurrence; r != nil {
			rec := &model.Recurrence{Frequency: r.Frequency, Interval: r.Interval, Count: r.Count}
			if r.EndDate != "" {
				end, err := time.ParseInLocation("2006-01-02", r.EndDate, loc)
				if err != nil {
					return nil, fmt.Errorf("demo: event %s end date: %w", e.ID, err)
				}
				rec.EndDate = &end
			}
			ev.Recurrence = rec
		}
		d.Events = append(d.Events, ev)
	}

	accountIDs := map[model.Platform]string{}
	followers := map[model.Platform]int{}
	for _, a := range fx.Accounts {
		acct := model.SocialAccount{
			ID:             a.ID,
			OrganizationID: d.Organization.ID,
			Platform:       a.Platform,
			Username:       a.Username,
			Status:         a.Status,
			LastSync:       now.Add(-a.SyncedAgo),
			FollowerCount:  a.Followers,
			PostsThisMonth: a.PostsThisMonth,
			RateLimit:      model.Usage(a.RateLimit),
			DailyPosts:     model.Usage(a.DailyPosts),
			CreatedAt:      created,
		}
		if bv := a.BrandVoice; bv != nil {
			acct.BrandVoice = &model.BrandVoice{
				Tone: bv.Tone, Style: bv.Style, CustomPrompt: bv.CustomPrompt,
				Keywords: bv.Keywords, TargetAudience: bv.TargetAudience,
			}
		}
		d.Accounts = append(d.Accounts, acct)
		accountIDs[a.Platform] = a.ID
		followers[a.Platform] = a.Followers
	}

	for i, a := range fx.Activities {
		d.Activities = append(d.Activities, model.Activity{
			ID: fmt.Sprintf("demo-activity-%d", i+1), OrganizationID: d.Organization.ID,
			UserID: memberIDs[a.User], Action: a.Action, Target: a.Target, Detail: a.Detail,
			CreatedAt: now.Add(-a.Ago),
		})
	}
	for i, n := range fx.Notifications {
		d.Notifications = append(d.Notifications, model.Notification{
			ID: fmt.Sprintf("demo-notification-%d", i+1), UserID: d.User.ID,
			Title: n.Title, Body: n.Body, Read: n.Read, CreatedAt: now.Add(-n.Ago),
		})
	}

	y, m, day := now.In(loc).Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, loc)
	for _, p := range model.AllPlatforms() {
		series := fx.Engagement[p]
		for i, eng := range series {
			date := today.AddDate(0, 0, i-len(series)+1)
			reach := eng * 21
			d.Analytics = append(d.Analytics, model.AnalyticsSummary{
				ID:             fmt.Sprintf("demo-%s-%s", p, date.Format("20060102")),
				OrganizationID: d.Organization.ID,
				AccountID:      accountIDs[p],
				Platform:       p,
				Date:           date,
				Reach:          reach,
				Impressions:    eng * 34,
				Engagements:    eng,
				EngagementRate: math.Round(float64(eng)/float64(reach)*1000) / 10,
				Followers:      followers[p],
			})
		}
	}

	for _, a := range fx.Ads {
		d.AdAccounts = append(d.AdAccounts, model.AdAccount{
			ID: a.ID, OrganizationID: d.Organization.ID, Network: a.Network, Name: a.Name,
			Status: a.Status, CreatedAt: created,
		})
		for _, c := range a.Campaigns {
			d.AdCampaigns = append(d.AdCampaigns, model.AdCampaign{
				ID: c.ID, OrganizationID: d.Organization.ID, AccountID: a.ID, Name: c.Name,
				Status: c.Status, CreatedAt: created,
			})
			for i, r := range c.Days {
				date := today.AddDate(0, 0, i-len(c.Days)+1)
				d.AdPerformance = append(d.AdPerformance, model.AdPerformance{
					ID:             fmt.Sprintf("%s-%s", c.ID, date.Format("20060102")),
					OrganizationID: d.Organization.ID,
					AccountID:      a.ID,
					CampaignID:     c.ID,
					Date:           date,
					Impressions:    r.Impressions,
					Clicks:         r.Clicks,
					Conversions:    r.Conversions,
					Spend:          r.Spend,
					Revenue:        r.Revenue,
				})
			}
		}
	}
	return d, nil
}

// Seed writes d into s. It is meant for empty stores.
func Seed(ctx context.Context, s store.Store, d *Dataset) error {
	if _, err := s.Users().Create(ctx, &d.User); err != nil {
		return fmt.Errorf("demo: seed user: %w", err)
	}
	if _, err := s.Profiles().Put(ctx, &d.Profile); err != nil {
		return fmt.Errorf("demo: seed profile: %w", err)
	}
	if _, err := s.Organizations().Create(ctx, &d.Organization); err != nil {
		return fmt.Errorf("demo: seed organization: %w", err)
	}
	for i := range d.Members {
		if _, err := s.Members().Add(ctx, &d.Members[i]); err != nil {
			return fmt.Errorf("demo: seed member %s: %w", d.Members[i].ID, err)
		}
	}
	for i := range d.Events {
		if _, err := s.Events().Create(ctx, &d.Events[i]); err != nil {
			return fmt.Errorf("demo: seed event %s: %w", d.Events[i].ID, err)
		}
	}
	for i := range d.Accounts {
		if _, err := s.Accounts().Create(ctx, &d.Accounts[i]); err != nil {
			return fmt.Errorf("demo: seed account %s: %w", d.Accounts[i].ID, err)
		}
	}
	for i := range d.Activities {
		if _, err := s.Activities().Create(ctx, &d.Activities[i]); err != nil {
			return fmt.Errorf("demo: seed activity: %w", err)
		}
	}
	for i := range d.Notifications {
		if _, err := s.Notifications().Create(ctx, &d.Notifications[i]); err != nil {
			return fmt.Errorf("demo: seed notification: %w", err)
		}
	}
	for i := range d.Analytics {
		if _, err := s.Analytics().Put(ctx, &d.Analytics[i]); err != nil {
			return fmt.Errorf("demo: seed analytics: %w", err)
		}
	}
	for i := range d.AdAccounts {
		if _, err := s.Ads().PutAccount(ctx, &d.AdAccounts[i]); err != nil {
			return fmt.Errorf("demo: seed ad account %s: %w", d.AdAccounts[i].ID, err)
		}
	}
	for i := range d.AdCampaigns {
		if _, err := s.Ads().PutCampaign(ctx, &d.AdCampaigns[i]); err != nil {
			return fmt.Errorf("demo: seed ad campaign %s: %w", d.AdCampaigns[i].ID, err)
		}
	}
	for i := range d.AdPerformance {
		if _, err := s.Ads().PutPerformance(ctx, &d.AdPerformance[i]); err != nil {
			return fmt.Errorf("demo: seed ad performance: %w", err)
		}
	}
	return nil
}

// NewStore returns an in-memory store holding the demo workspace.
func NewStore(ctx context.Context, now func() time.Time, loc *time.Location) (*memory.Store, error) {
	if now == nil {
		now = time.Now
	}
	d, err := Load(now(), loc)
	if err != nil {
		return nil, err
	}
	s := memory.New(now)
	if err := Seed(ctx, s, d); err != nil {
		return nil, err
	}
	return s, nil
}
