package model

import (
	"math"
	"time"
)

// AdAccountStatus is the connection state of an advertising account.
type AdAccountStatus string

const (
	AdAccountConnected    AdAccountStatus = "connected"
	AdAccountDisconnected AdAccountStatus = "disconnected"
)

// AdCampaignStatus is the delivery state of a campaign.
type AdCampaignStatus string

const (
	AdCampaignActive AdCampaignStatus = "active"
	AdCampaignPaused AdCampaignStatus = "paused"
)

// AdAccount is an advertising account on an ad network such as
// "Facebook Ads" or "Google Ads".
type AdAccount struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	Network        string          `json:"network"`
	Name           string          `json:"name"`
	Status         AdAccountStatus `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// AdCampaign belongs to one ad account.
type AdCampaign struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organizationId"`
	AccountID      string           `json:"accountId"`
	Name           string           `json:"name"`
	Status         AdCampaignStatus `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// AdPerformance is one day of delivery for a campaign.
type AdPerformance struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	AccountID      string    `json:"accountId"`
	CampaignID     string    `json:"campaignId,omitempty"`
	Date           time.Time `json:"date"`
	Impressions    int       `json:"impressions"`
	Clicks         int       `json:"clicks"`
	Conversions    int       `json:"conversions"`
	Spend          float64   `json:"spend"`
	Revenue        float64   `json:"revenue"`
}

// CTR is the click-through rate in percent, rounded to two decimals.
func (p AdPerformance) CTR() float64 { return Percent(p.Clicks, p.Impressions) }

// ROAS is revenue over spend, rounded to two decimals. Zero spend yields 0.
func (p AdPerformance) ROAS() float64 { return Ratio(p.Revenue, p.Spend) }

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(whole) * 100)
}

// Ratio returns a/b rounded to two decimals, or 0 when b is 0.
func Ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return Round2(a / b)
}

// Round2 rounds f to two decimals.
func Round2(f float64) float64 { return math.Round(f*100) / 100 }
