package model

import "time"

// User is an authentication identity.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile extends a user with display data.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName  *string `json:"fullName,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Organization groups team members, accounts and content.
type Organization struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	OwnerID          string    `json:"ownerId"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	CreatedAt        time.Time `json:"createdAt"`

	// UserRole is filled when the organization is read through a membership.
	UserRole string `json:"userRole,omitempty"`
}

// Role labels are informational only; nothing enforces them.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

const (
	MemberActive  = "active"
	MemberPending = "pending"
)

// TeamMember links a user (or a pending invite) to an organization.
type TeamMember struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	UserID         string    `json:"userId,omitempty"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName,omitempty"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// AccountStatus is the connection health of a social account.
type AccountStatus string

const (
	AccountConnected AccountStatus = "connected"
	AccountExpired   AccountStatus = "expired"
	AccountError     AccountStatus = "error"
)

// Usage is a used/total pair for API quota display.
type Usage struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}

// BrandVoice configures caption generation for an account.
type BrandVoice struct {
	Tone           string `json:"tone"`
	Style          string `json:"style"`
	CustomPrompt   string `json:"customPrompt"`
	Keywords       string `json:"keywords"`
	TargetAudience string `json:"targetAudience"`
}

// SocialAccount is a (simulated) connection to a platform account.
type SocialAccount struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Platform       Platform      `json:"platform"`
	Username       string        `json:"username"`
	Status         AccountStatus `json:"status"`
	LastSync       time.Time     `json:"lastSync"`
	FollowerCount  int           `json:"followerCount"`
	PostsThisMonth int           `json:"postsThisMonth"`
	RateLimit      Usage         `json:"rateLimit"`
	DailyPosts     Usage         `json:"dailyPosts"`
	BrandVoice     *BrandVoice   `json:"brandVoice,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Activity is an entry in the team activity feed.
type Activity struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	UserID         string    `json:"userId"`
	Action         string    `json:"action"`
	Target         string    `json:"target"`
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Notification is addressed to a single user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnalyticsSummary is one day of aggregated metrics for an account.
type AnalyticsSummary struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	AccountID      string    `json:"accountId,omitempty"`
	Platform       Platform  `json:"platform,omitempty"`
	Date           time.Time `json:"date"`
	Reach          int       `json:"reach"`
	Impressions    int       `json:"impressions"`
	Engagements    int       `json:"engagements"`
	EngagementRate float64   `json:"engagementRate"`
	Followers      int       `json:"followers"`
}
