package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

// Dialect selects the placeholder style and error mapping of a driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "pgx"
)

// Open opens a database with the matching driver and verifies connectivity.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s DSN is empty", d)
	}
	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, err
	}
	if d == SQLite {
		// modernc serializes writers per connection; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteDSN builds a DSN for a database file with a busy timeout.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Store implements store.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewWithDB wraps an open database. Call Migrate before first use.
func NewWithDB(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d, now: time.Now}
}

// OpenSQLite opens (creating if needed) and migrates a SQLite file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := Open(SQLite, SQLiteDSN(path))
	if err != nil {
		return nil, err
	}
	return migrated(ctx, NewWithDB(db, SQLite))
}

// OpenPostgres connects to PostgreSQL and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := Open(Postgres, dsn)
	if err != nil {
		return nil, err
	}
	return migrated(ctx, NewWithDB(db, Postgres))
}

func migrated(ctx context.Context, s *Store) (*Store, error) {
	if err := s.Migrate(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Users() store.Users                 { return &users{s} }
func (s *Store) Profiles() store.Profiles           { return &profiles{s} }
func (s *Store) Organizations() store.Organizations { return &organizations{s} }
func (s *Store) Members() store.Members             { return &members{s} }
func (s *Store) Accounts() store.Accounts           { return &accounts{s} }
func (s *Store) Events() store.Events               { return &events{s} }
func (s *Store) Activities() store.Activities       { return &activities{s} }
func (s *Store) Notifications() store.Notifications { return &notifications{s} }
func (s *Store) Analytics() store.Analytics         { return &analytics{s} }
func (s *Store) Ads() store.Ads                     { return &ads{s} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Store) Close() error                   { return s.db.Close() }

// rebind rewrites '?' placeholders to $n for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	return res, mapErr(err)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(q), args...)
}

// execOne runs an UPDATE/DELETE and reports ErrNotFound when no row matched.
func (s *Store) execOne(ctx context.Context, kind, id, q string, args ...any) error {
	res, err := s.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", model.ErrConflict, pgErr.ConstraintName)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", model.ErrConflict, err)
		}
	}
	return err
}

func scanErr(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return err
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func ms(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMS(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}

// jsonCol encodes v, storing nil pointers as NULL.
func jsonCol[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func fromJSONCol[T any](ns sql.NullString) (*T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// --- Users ---
type users struct{ s *Store }

func (r *users) Create(ctx context.Context, u *model.User) (*model.User, error) {
	out := *u
	out.ID = newID(u.ID)
	out.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?,?,?,?)`,
		out.ID, out.Email, out.PasswordHash, ms(out.CreatedAt)); err != nil {
		return nil, fmt.Errorf("user %s: %w", out.Email, err)
	}
	return &out, nil
}

func (r *users) scan(row scanner) (*model.User, error) {
	var u model.User
	var created int64
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMS(created)
	return &u, nil
}

func (r *users) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := r.scan(r.s.queryRow(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, scanErr("user", id, err)
	}
	return u, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := r.scan(r.s.queryRow(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, scanErr("user", email, err)
	}
	return u, nil
}

func (r *users) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.s.execOne(ctx, "user", id, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
}

// --- Profiles ---
type profiles struct{ s *Store }

func (r *profiles) Put(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	now := r.s.now()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	if _, err := r.s.exec(ctx, `
		INSERT INTO profiles (id, email, full_name, avatar_url, role, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			avatar_url = excluded.avatar_url,
			role = excluded.role,
			updated_at = excluded.updated_at`,
		p.ID, p.Email, p.FullName, p.AvatarURL, p.Role, ms(created), ms(now)); err != nil {
		return nil, err
	}
	return r.Get(ctx, p.ID)
}

func (r *profiles) Get(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	var created, updated int64
	err := r.s.queryRow(ctx, `
		SELECT id, email, full_name, avatar_url, role, created_at, updated_at
		FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Role, &created, &updated)
	if err != nil {
		return nil, scanErr("profile", id, err)
	}
	p.CreatedAt, p.UpdatedAt = fromMS(created), fromMS(updated)
	return &p, nil
}

func (r *profiles) Update(ctx context.Context, id string, upd model.ProfileUpdate) (*model.Profile, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = *upd.AvatarURL
	}
	if err := r.s.execOne(ctx, "profile", id,
		`UPDATE profiles SET full_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		p.FullName, p.AvatarURL, ms(r.s.now()), id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// --- Organizations ---
type organizations struct{ s *Store }

func (r *organizations) Create(ctx context.Context, o *model.Organization) (*model.Organization, error) {
	out := *o
	out.ID = newID(o.ID)
	out.UserRole = ""
	if out.SubscriptionPlan == "" {
		out.SubscriptionPlan = "free"
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `
		INSERT INTO organizations (id, name, owner_id, subscription_plan, created_at)
		VALUES (?,?,?,?,?)`, out.ID, out.Name, out.OwnerID, out.SubscriptionPlan, ms(out.CreatedAt)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *organizations) Get(ctx context.Context, id string) (*model.Organization, error) {
	var o model.Organization
	var created int64
	err := r.s.queryRow(ctx, `SELECT id, name, owner_id, subscription_plan, created_at FROM organizations WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.OwnerID, &o.SubscriptionPlan, &created)
	if err != nil {
		return nil, scanErr("organization", id, err)
	}
	o.CreatedAt = fromMS(created)
	return &o, nil
}

func (r *organizations) ForUser(ctx context.Context, userID string) (*model.Organization, error) {
	var o model.Organization
	var created int64
	err := r.s.queryRow(ctx, `
		SELECT o.id, o.name, o.owner_id, o.subscription_plan, o.created_at, m.role
		FROM team_members m JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = ? AND m.status = ?
		ORDER BY m.joined_at, m.id
		LIMIT 1`, userID, model.MemberActive).
		Scan(&o.ID, &o.Name, &o.OwnerID, &o.SubscriptionPlan, &created, &o.UserRole)
	if err != nil {
		return nil, scanErr("organization for user", userID, err)
	}
	o.CreatedAt = fromMS(created)
	return &o, nil
}

// --- Members ---
type members struct{ s *Store }

const memberCols = `id, organization_id, user_id, email, full_name, role, status, joined_at`

func scanMember(row scanner) (*model.TeamMember, error) {
	var m model.TeamMember
	var joined int64
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Email, &m.FullName, &m.Role, &m.Status, &joined); err != nil {
		return nil, err
	}
	m.JoinedAt = fromMS(joined)
	return &m, nil
}

func (r *members) Add(ctx context.Context, m *model.TeamMember) (*model.TeamMember, error) {
	out := *m
	out.ID = newID(m.ID)
	out.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if out.JoinedAt.IsZero() {
		out.JoinedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `INSERT INTO team_members (`+memberCols+`) VALUES (?,?,?,?,?,?,?,?)`,
		out.ID, out.OrganizationID, out.UserID, out.Email, out.FullName, out.Role, out.Status, ms(out.JoinedAt)); err != nil {
		return nil, fmt.Errorf("member %s: %w", out.Email, err)
	}
	return &out, nil
}

func (r *members) Get(ctx context.Context, id string) (*model.TeamMember, error) {
	m, err := scanMember(r.s.queryRow(ctx, `SELECT `+memberCols+` FROM team_members WHERE id = ?`, id))
	if err != nil {
		return nil, scanErr("member", id, err)
	}
	return m, nil
}

func (r *members) List(ctx context.Context, orgID string) ([]*model.TeamMember, error) {
	rows, err := r.s.query(ctx, `SELECT `+memberCols+` FROM team_members WHERE organization_id = ? ORDER BY joined_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.TeamMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *members) UpdateRole(ctx context.Context, id, role string) (*model.TeamMember, error) {
	if err := r.s.execOne(ctx, "member", id, `UPDATE team_members SET role = ? WHERE id = ?`, role, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *members) Remove(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "member", id, `DELETE FROM team_members WHERE id = ?`, id)
}

// --- Accounts ---
type accounts struct{ s *Store }

const accountCols = `id, organization_id, platform, username, status, last_sync, follower_count,
	posts_this_month, rate_used, rate_total, daily_used, daily_total, brand_voice, created_at`

func scanAccount(row scanner) (*model.SocialAccount, error) {
	var a model.SocialAccount
	var lastSync, created int64
	var voice sql.NullString
	if err := row.Scan(&a.ID, &a.OrganizationID, &a.Platform, &a.Username, &a.Status, &lastSync, &a.FollowerCount,
		&a.PostsThisMonth, &a.RateLimit.Used, &a.RateLimit.Total, &a.DailyPosts.Used, &a.DailyPosts.Total,
		&voice, &created); err != nil {
		return nil, err
	}
	bv, err := fromJSONCol[model.BrandVoice](voice)
	if err != nil {
		return nil, fmt.Errorf("account %s brand voice: %w", a.ID, err)
	}
	a.BrandVoice = bv
	a.LastSync, a.CreatedAt = fromMS(lastSync), fromMS(created)
	return &a, nil
}

func (r *accounts) Create(ctx context.Context, a *model.SocialAccount) (*model.SocialAccount, error) {
	out := *a
	out.ID = newID(a.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	voice, err := jsonCol(out.BrandVoice)
	if err != nil {
		return nil, err
	}
	if _, err := r.s.exec(ctx, `INSERT INTO social_accounts (`+accountCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.ID, out.OrganizationID, out.Platform, out.Username, out.Status, ms(out.LastSync), out.FollowerCount,
		out.PostsThisMonth, out.RateLimit.Used, out.RateLimit.Total, out.DailyPosts.Used, out.DailyPosts.Total,
		voice, ms(out.CreatedAt)); err != nil {
		return nil, err
	}
	return r.Get(ctx, out.ID)
}

func (r *accounts) Get(ctx context.Context, id string) (*model.SocialAccount, error) {
	a, err := scanAccount(r.s.queryRow(ctx, `SELECT `+accountCols+` FROM social_accounts WHERE id = ?`, id))
	if err != nil {
		return nil, scanErr("account", id, err)
	}
	return a, nil
}

func (r *accounts) List(ctx context.Context, orgID string) ([]*model.SocialAccount, error) {
	rows, err := r.s.query(ctx, `SELECT `+accountCols+` FROM social_accounts WHERE organization_id = ? ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.SocialAccount, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accounts) Update(ctx context.Context, a *model.SocialAccount) (*model.SocialAccount, error) {
	voice, err := jsonCol(a.BrandVoice)
	if err != nil {
		return nil, err
	}
	if err := r.s.execOne(ctx, "account", a.ID, `
		UPDATE social_accounts SET platform = ?, username = ?, status = ?, last_sync = ?, follower_count = ?,
			posts_this_month = ?, rate_used = ?, rate_total = ?, daily_used = ?, daily_total = ?, brand_voice = ?
		WHERE id = ?`,
		a.Platform, a.Username, a.Status, ms(a.LastSync), a.FollowerCount,
		a.PostsThisMonth, a.RateLimit.Used, a.RateLimit.Total, a.DailyPosts.Used, a.DailyPosts.Total, voice,
		a.ID); err != nil {
		return nil, err
	}
	return r.Get(ctx, a.ID)
}

func (r *accounts) Delete(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "account", id, `DELETE FROM social_accounts WHERE id = ?`, id)
}

// --- Events ---
type events struct{ s *Store }

const eventCols = `id, organization_id, author_id, caption, scheduled_at, platforms, type, status,
	media, recurrence, review_comment, created_at, updated_at`

func scanEvent(row scanner) (*model.Event, error) {
	var e model.Event
	var at, created, updated int64
	var platforms string
	var media, rec sql.NullString
	if err := row.Scan(&e.ID, &e.OrganizationID, &e.AuthorID, &e.Caption, &at, &platforms, &e.Type, &e.Status,
		&media, &rec, &e.ReviewComment, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(platforms), &e.Platforms); err != nil {
		return nil, fmt.Errorf("event %s platforms: %w", e.ID, err)
	}
	var err error
	if e.Media, err = fromJSONCol[model.Media](media); err != nil {
		return nil, fmt.Errorf("event %s media: %w", e.ID, err)
	}
	if e.Recurrence, err = fromJSONCol[model.Recurrence](rec); err != nil {
		return nil, fmt.Errorf("event %s recurrence: %w", e.ID, err)
	}
	e.ScheduledDate, e.CreatedAt, e.UpdatedAt = fromMS(at), fromMS(created), fromMS(updated)
	return &e, nil
}

func eventArgs(e *model.Event) (platforms string, media, rec any, err error) {
	ps := e.Platforms
	if ps == nil {
		ps = []model.Platform{}
	}
	b, err := json.Marshal(ps)
	if err != nil {
		return "", nil, nil, err
	}
	if media, err = jsonCol(e.Media); err != nil {
		return "", nil, nil, err
	}
	if rec, err = jsonCol(e.Recurrence); err != nil {
		return "", nil, nil, err
	}
	return string(b), media, rec, nil
}

func (r *events) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	out := e.Clone()
	out.ID = newID(e.ID)
	now := r.s.now()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	platforms, media, rec, err := eventArgs(&out)
	if err != nil {
		return nil, err
	}
	if _, err := r.s.exec(ctx, `INSERT INTO calendar_events (`+eventCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.ID, out.OrganizationID, out.AuthorID, out.Caption, ms(out.ScheduledDate), platforms, out.Type, out.Status,
		media, rec, out.ReviewComment, ms(out.CreatedAt), ms(out.UpdatedAt)); err != nil {
		return nil, fmt.Errorf("event %s: %w", out.ID, err)
	}
	return r.Get(ctx, out.ID)
}

func (r *events) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.s.queryRow(ctx, `SELECT `+eventCols+` FROM calendar_events WHERE id = ?`, id))
	if err != nil {
		return nil, scanErr("event", id, err)
	}
	return e, nil
}

func (r *events) Update(ctx context.Context, e *model.Event) (*model.Event, error) {
	platforms, media, rec, err := eventArgs(e)
	if err != nil {
		return nil, err
	}
	if err := r.s.execOne(ctx, "event", e.ID, `
		UPDATE calendar_events SET organization_id = ?, author_id = ?, caption = ?, scheduled_at = ?, platforms = ?,
			type = ?, status = ?, media = ?, recurrence = ?, review_comment = ?, updated_at = ?
		WHERE id = ?`,
		e.OrganizationID, e.AuthorID, e.Caption, ms(e.ScheduledDate), platforms,
		e.Type, e.Status, media, rec, e.ReviewComment, ms(r.s.now()), e.ID); err != nil {
		return nil, err
	}
	return r.Get(ctx, e.ID)
}

func (r *events) Delete(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "event", id, `DELETE FROM calendar_events WHERE id = ?`, id)
}

func (r *events) List(ctx context.Context, f store.EventFilter) ([]*model.Event, error) {
	var where []string
	var args []any
	if f.OrganizationID != "" {
		where = append(where, "organization_id = ?")
		args = append(args, f.OrganizationID)
	}
	if f.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}
	if !f.From.IsZero() {
		where = append(where, "(scheduled_at >= ? OR recurrence IS NOT NULL)")
		args = append(args, f.From.UnixMilli())
	}
	if !f.To.IsZero() {
		where = append(where, "scheduled_at < ?")
		args = append(args, f.To.UnixMilli())
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		where = append(where, "status IN ("+strings.Join(marks, ",")+")")
	}
	q := `SELECT ` + eventCols + ` FROM calendar_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY scheduled_at, id"

	rows, err := r.s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Activities ---
type activities struct{ s *Store }

func (r *activities) Create(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	out := *a
	out.ID = newID(a.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `
		INSERT INTO activities (id, organization_id, user_id, action, target, detail, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		out.ID, out.OrganizationID, out.UserID, out.Action, out.Target, out.Detail, ms(out.CreatedAt)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *activities) List(ctx context.Context, orgID string, limit int) ([]*model.Activity, error) {
	q := `SELECT id, organization_id, user_id, action, target, detail, created_at
		FROM activities WHERE organization_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{orgID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Activity, 0)
	for rows.Next() {
		var a model.Activity
		var created int64
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.UserID, &a.Action, &a.Target, &a.Detail, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = fromMS(created)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- Notifications ---
type notifications struct{ s *Store }

func (r *notifications) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	out := *n
	out.ID = newID(n.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `
		INSERT INTO notifications (id, user_id, title, body, is_read, created_at)
		VALUES (?,?,?,?,?,?)`,
		out.ID, out.UserID, out.Title, out.Body, out.Read, ms(out.CreatedAt)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *notifications) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, user_id, title, body, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var created int64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Read, &created); err != nil {
			return nil, err
		}
		n.CreatedAt = fromMS(created)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *notifications) MarkRead(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "notification", id, `UPDATE notifications SET is_read = ? WHERE id = ?`, true, id)
}

func (r *notifications) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.s.exec(ctx, `UPDATE notifications SET is_read = ? WHERE user_id = ?`, true, userID)
	return err
}

// --- Analytics ---
type analytics struct{ s *Store }

func (r *analytics) Put(ctx context.Context, a *model.AnalyticsSummary) (*model.AnalyticsSummary, error) {
	out := *a
	out.ID = newID(a.ID)
	if _, err := r.s.exec(ctx, `
		INSERT INTO analytics_summaries
			(id, organization_id, account_id, platform, day, reach, impressions, engagements, engagement_rate, followers)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = excluded.organization_id,
			account_id = excluded.account_id,
			platform = excluded.platform,
			day = excluded.day,
			reach = excluded.reach,
			impressions = excluded.impressions,
			engagements = excluded.engagements,
			engagement_rate = excluded.engagement_rate,
			followers = excluded.followers`,
		out.ID, out.OrganizationID, out.AccountID, out.Platform, ms(out.Date), out.Reach, out.Impressions,
		out.Engagements, out.EngagementRate, out.Followers); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *analytics) List(ctx context.Context, orgID string, since time.Time) ([]*model.AnalyticsSummary, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, organization_id, account_id, platform, day, reach, impressions, engagements, engagement_rate, followers
		FROM analytics_summaries WHERE organization_id = ? AND day >= ? ORDER BY day, id`, orgID, ms(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.AnalyticsSummary, 0)
	for rows.Next() {
		var a model.AnalyticsSummary
		var day int64
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.AccountID, &a.Platform, &day, &a.Reach, &a.Impressions,
			&a.Engagements, &a.EngagementRate, &a.Followers); err != nil {
			return nil, err
		}
		a.Date = fromMS(day)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- Ads ---
type ads struct{ s *Store }

func (r *ads) PutAccount(ctx context.Context, a *model.AdAccount) (*model.AdAccount, error) {
	out := *a
	out.ID = newID(a.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `
		INSERT INTO ad_accounts (id, organization_id, network, name, status, created_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = excluded.organization_id,
			network = excluded.network,
			name = excluded.name,
			status = excluded.status`,
		out.ID, out.OrganizationID, out.Network, out.Name, out.Status, ms(out.CreatedAt)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ads) ListAccounts(ctx context.Context, orgID string) ([]*model.AdAccount, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, organization_id, network, name, status, created_at
		FROM ad_accounts WHERE organization_id = ? ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.AdAccount, 0)
	for rows.Next() {
		var a model.AdAccount
		var created int64
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.Network, &a.Name, &a.Status, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = fromMS(created)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *ads) PutCampaign(ctx context.Context, c *model.AdCampaign) (*model.AdCampaign, error) {
	var exists int
	err := r.s.queryRow(ctx, `SELECT 1 FROM ad_accounts WHERE id = ?`, c.AccountID).Scan(&exists)
	if err != nil {
		return nil, scanErr("ad account", c.AccountID, err)
	}
	out := *c
	out.ID = newID(c.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	if _, err := r.s.exec(ctx, `
		INSERT INTO ad_campaigns (id, organization_id, account_id, name, status, created_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = excluded.organization_id,
			account_id = excluded.account_id,
			name = excluded.name,
			status = excluded.status`,
		out.ID, out.OrganizationID, out.AccountID, out.Name, out.Status, ms(out.CreatedAt)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ads) ListCampaigns(ctx context.Context, orgID string) ([]*model.AdCampaign, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, organization_id, account_id, name, status, created_at
		FROM ad_campaigns WHERE organization_id = ? ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.AdCampaign, 0)
	for rows.Next() {
		var c model.AdCampaign
		var created int64
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.AccountID, &c.Name, &c.Status, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = fromMS(created)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ads) PutPerformance(ctx context.Context, p *model.AdPerformance) (*model.AdPerformance, error) {
	out := *p
	out.ID = newID(p.ID)
	if _, err := r.s.exec(ctx, `
		INSERT INTO ad_performance
			(id, organization_id, account_id, campaign_id, day, impressions, clicks, conversions, spend, revenue)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = excluded.organization_id,
			account_id = excluded.account_id,
			campaign_id = excluded.campaign_id,
			day = excluded.day,
			impressions = excluded.impressions,
			clicks = excluded.clicks,
			conversions = excluded.conversions,
			spend = excluded.spend,
			revenue = excluded.revenue`,
		out.ID, out.OrganizationID, out.AccountID, out.CampaignID, ms(out.Date), out.Impressions, out.Clicks,
		out.Conversions, out.Spend, out.Revenue); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ads) ListPerformance(ctx context.Context, orgID string, since time.Time) ([]*model.AdPerformance, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, organization_id, account_id, campaign_id, day, impressions, clicks, conversions, spend, revenue
		FROM ad_performance WHERE organization_id = ? AND day >= ? ORDER BY day, id`, orgID, ms(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.AdPerformance, 0)
	for rows.Next() {
		var p model.AdPerformance
		var day int64
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.AccountID, &p.CampaignID, &day, &p.Impressions, &p.Clicks,
			&p.Conversions, &p.Spend, &p.Revenue); err != nil {
			return nil, err
		}
		p.Date = fromMS(day)
		out = append(out, &p)
	}
	return out, rows.Err()
}
