package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

// DefaultAdRange is the report window when none is given.
const DefaultAdRange = "7d"

var adRanges = map[string]int{"7d": 7, "30d": 30, "90d": 90, "1y": 365}

// ParseAdRange maps a report range (7d, 30d, 90d, 1y) to days. Empty means
// DefaultAdRange.
func ParseAdRange(s string) (int, error) {
	if s == "" {
		s = DefaultAdRange
	}
	days, ok := adRanges[s]
	if !ok {
		return 0, fmt.Errorf("%w: unknown range %q", model.ErrValidation, s)
	}
	return days, nil
}

// AdsService reports advertising spend and returns across ad networks.
type AdsService struct {
	src *Sources
	loc *time.Location
	now func() time.Time
}

func NewAdsService(src *Sources, loc *time.Location, now func() time.Time) *AdsService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &AdsService{src: src, loc: loc, now: now}
}

// readAds is read with one more fallback: a backend without any ad account
// serves the demo workspace as a preview, tagged SourceDemo.
func readAds[T any](ctx context.Context, src *Sources, op string, sc Scope, fn func(store.Store, Scope) (T, error)) Result[T] {
	res := read(ctx, src, op, sc, fn)
	if res.Source != SourceLive || src.demo == nil {
		return res
	}
	accts, err := src.live.Ads().ListAccounts(ctx, sc.OrganizationID)
	if err != nil || len(accts) > 0 {
		return res
	}
	data, err := fn(src.demo, DemoScope())
	if err != nil {
		return res
	}
	return Result[T]{Data: data, Source: SourceDemo}
}

func (a *AdsService) today() time.Time {
	y, m, d := a.now().In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

func (a *AdsService) since(days int) time.Time {
	if days <= 0 {
		days = adRanges[DefaultAdRange]
	}
	return a.today().AddDate(0, 0, -days+1)
}

// AdAccountSummary is an ad account card: today's spend and how many
// campaigns it runs.
type AdAccountSummary struct {
	model.AdAccount
	SpendToday float64 `json:"spendToday"`
	Campaigns  int     `json:"campaigns"`
}

// Accounts lists the ad accounts of the organization.
func (a *AdsService) Accounts(ctx context.Context, sc Scope) Result[[]AdAccountSummary] {
	today := a.today()
	return readAds(ctx, a.src, "ads.accounts", sc, func(s store.Store, sc Scope) ([]AdAccountSummary, error) {
		accts, err := s.Ads().ListAccounts(ctx, sc.OrganizationID)
		if err != nil {
			return nil, err
		}
		camps, err := s.Ads().ListCampaigns(ctx, sc.OrganizationID)
		if err != nil {
			return nil, err
		}
		rows, err := s.Ads().ListPerformance(ctx, sc.OrganizationID, today)
		if err != nil {
			return nil, err
		}
		count := map[string]int{}
		for _, c := range camps {
			count[c.AccountID]++
		}
		spend := map[string]float64{}
		for _, r := range rows {
			spend[r.AccountID] += r.Spend
		}
		out := make([]AdAccountSummary, 0, len(accts))
		for _, acct := range accts {
			out = append(out, AdAccountSummary{
				AdAccount:  *acct,
				SpendToday: model.Round2(spend[acct.ID]),
				Campaigns:  count[acct.ID],
			})
		}
		return out, nil
	})
}

// AdTotals sums delivery over a window. Rates are percentages.
type AdTotals struct {
	Impressions    int     `json:"impressions"`
	Clicks         int     `json:"clicks"`
	Conversions    int     `json:"conversions"`
	Spend          float64 `json:"spend"`
	Revenue        float64 `json:"revenue"`
	CTR            float64 `json:"ctr"`
	ROAS           float64 `json:"roas"`
	ConversionRate float64 `json:"conversionRate"`
}

func (t *AdTotals) add(r *model.AdPerformance) {
	t.Impressions += r.Impressions
	t.Clicks += r.Clicks
	t.Conversions += r.Conversions
	t.Spend += r.Spend
	t.Revenue += r.Revenue
}

func (t *AdTotals) finish() {
	t.Spend = model.Round2(t.Spend)
	t.Revenue = model.Round2(t.Revenue)
	t.CTR = model.Percent(t.Clicks, t.Impressions)
	t.ROAS = model.Ratio(t.Revenue, t.Spend)
	t.ConversionRate = model.Percent(t.Conversions, t.Clicks)
}

// AdDay is one delivery row labelled with its network and campaign.
type AdDay struct {
	Date        time.Time `json:"date"`
	Network     string    `json:"network"`
	Campaign    string    `json:"campaign,omitempty"`
	Impressions int       `json:"impressions"`
	Clicks      int       `json:"clicks"`
	Conversions int       `json:"conversions"`
	Spend       float64   `json:"spend"`
	Revenue     float64   `json:"revenue"`
	CTR         float64   `json:"ctr"`
	ROAS        float64   `json:"roas"`
}

// NetworkSpend is the spend share of one ad network.
type NetworkSpend struct {
	Network string  `json:"network"`
	Spend   float64 `json:"spend"`
}

// AdReport is the performance page: totals, spend per network and the
// daily rows, oldest first.
type AdReport struct {
	Totals   AdTotals       `json:"totals"`
	Networks []NetworkSpend `json:"networks"`
	Days     []AdDay        `json:"days"`
}

type adLabels struct {
	network  map[string]string
	campaign map[string]*model.AdCampaign
}

func loadLabels(ctx context.Context, s store.Store, orgID string) (adLabels, error) {
	l := adLabels{network: map[string]string{}, campaign: map[string]*model.AdCampaign{}}
	accts, err := s.Ads().ListAccounts(ctx, orgID)
	if err != nil {
		return l, err
	}
	for _, acct := range accts {
		l.network[acct.ID] = acct.Network
	}
	camps, err := s.Ads().ListCampaigns(ctx, orgID)
	if err != nil {
		return l, err
	}
	for _, c := range camps {
		l.campaign[c.ID] = c
	}
	return l, nil
}

// Performance reports the last days days of delivery.
func (a *AdsService) Performance(ctx context.Context, sc Scope, days int) Result[AdReport] {
	since := a.since(days)
	return readAds(ctx, a.src, "ads.performance", sc, func(s store.Store, sc Scope) (AdReport, error) {
		rep := AdReport{Networks: []NetworkSpend{}, Days: []AdDay{}}
		labels, err := loadLabels(ctx, s, sc.OrganizationID)
		if err != nil {
			return rep, err
		}
		rows, err := s.Ads().ListPerformance(ctx, sc.OrganizationID, since)
		if err != nil {
			return rep, err
		}
		byNetwork := map[string]float64{}
		var order []string
		for _, r := range rows {
			rep.Totals.add(r)
			network := labels.network[r.AccountID]
			if _, seen := byNetwork[network]; !seen {
				order = append(order, network)
			}
			byNetwork[network] += r.Spend
			day := AdDay{
				Date: r.Date.In(a.loc), Network: network,
				Impressions: r.Impressions, Clicks: r.Clicks, Conversions: r.Conversions,
				Spend: r.Spend, Revenue: r.Revenue, CTR: r.CTR(), ROAS: r.ROAS(),
			}
			if c := labels.campaign[r.CampaignID]; c != nil {
				day.Campaign = c.Name
			}
			rep.Days = append(rep.Days, day)
		}
		rep.Totals.finish()
		for _, n := range order {
			rep.Networks = append(rep.Networks, NetworkSpend{Network: n, Spend: model.Round2(byNetwork[n])})
		}
		return rep, nil
	})
}

// CampaignSummary aggregates a campaign over a window. ROAS is the mean of
// its daily ROAS values.
type CampaignSummary struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Network     string                 `json:"network"`
	Status      model.AdCampaignStatus `json:"status"`
	Spend       float64                `json:"spend"`
	Conversions int                    `json:"conversions"`
	ROAS        float64                `json:"roas"`
}

// Campaigns lists campaigns by spend, highest first. Campaigns without
// delivery in the window are included with zero totals.
func (a *AdsService) Campaigns(ctx context.Context, sc Scope, days int) Result[[]CampaignSummary] {
	since := a.since(days)
	return readAds(ctx, a.src, "ads.campaigns", sc, func(s store.Store, sc Scope) ([]CampaignSummary, error) {
		labels, err := loadLabels(ctx, s, sc.OrganizationID)
		if err != nil {
			return nil, err
		}
		rows, err := s.Ads().ListPerformance(ctx, sc.OrganizationID, since)
		if err != nil {
			return nil, err
		}
		type acc struct {
			sum  CampaignSummary
			roas float64
			days int
		}
		byID := map[string]*acc{}
		for id, c := range labels.campaign {
			byID[id] = &acc{sum: CampaignSummary{
				ID: id, Name: c.Name, Network: labels.network[c.AccountID], Status: c.Status,
			}}
		}
		for _, r := range rows {
			c := byID[r.CampaignID]
			if c == nil {
				continue
			}
			c.sum.Spend += r.Spend
			c.sum.Conversions += r.Conversions
			c.roas += r.ROAS()
			c.days++
		}
		out := make([]CampaignSummary, 0, len(byID))
		for _, c := range byID {
			c.sum.Spend = model.Round2(c.sum.Spend)
			if c.days > 0 {
				c.sum.ROAS = model.Round2(c.roas / float64(c.days))
			}
			out = append(out, c.sum)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Spend != out[j].Spend {
				return out[i].Spend > out[j].Spend
			}
			return out[i].ID < out[j].ID
		})
		return out, nil
	})
}

var adCSVHeader = []string{"date", "network", "campaign", "impressions", "clicks", "conversions", "spend", "revenue", "ctr", "roas"}

// ExportCSV writes the daily rows of the last days days as CSV.
func (a *AdsService) ExportCSV(ctx context.Context, sc Scope, days int, w io.Writer) error {
	res := a.Performance(ctx, sc, days)
	if res.Source == SourceError {
		return fmt.Errorf("export ad performance: %s", res.Error)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(adCSVHeader); err != nil {
		return err
	}
	money := func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
	for _, d := range res.Data.Days {
		rec := []string{
			d.Date.Format("2006-01-02"),
			d.Network,
			d.Campaign,
			strconv.Itoa(d.Impressions),
			strconv.Itoa(d.Clicks),
			strconv.Itoa(d.Conversions),
			money(d.Spend),
			money(d.Revenue),
			money(d.CTR),
			money(d.ROAS),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

