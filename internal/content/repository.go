package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"parish-site/internal/db"
)

const (
	newsListLimit    = 20
	defaultListLimit = 50

	foreignKeyViolation = "23503"
)

var ErrChapelNotFound = errors.New("chapel not found")

const (
	newsColumns     = `id, title, excerpt, content, image_url, status, published_at, created_at, updated_at`
	massColumns     = `m.id, m.chapel_id, COALESCE(c.name, ''), m.day_of_week, m.time, m.description, m.created_at, m.updated_at`
	pastoralColumns = `id, name, description, coordinator, email, phone, meeting_day, meeting_time, image_url, status, created_at, updated_at`
	chapelColumns   = `id, name, neighborhood, address, phone, description, image_url, status, created_at, updated_at`
)

type Repository struct {
	db db.Querier
}

func NewRepository(database db.Querier) *Repository {
	return &Repository{db: database}
}

// ListNews returns the newest items first. Drafts are only included when
// includeDrafts is set.
func (r *Repository) ListNews(ctx context.Context, includeDrafts bool) ([]News, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+newsColumns+`
		FROM news
		WHERE ($1 OR status = 'published')
		ORDER BY published_at DESC
		LIMIT $2
	`, includeDrafts, newsListLimit)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}

	return collect(rows, scanNews, "news")
}

func (r *Repository) GetNews(ctx context.Context, id string) (News, error) {
	n, err := scanNews(r.db.QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id))
	if err != nil {
		return News{}, notFoundOr(err, "query news")
	}
	return n, nil
}

func (r *Repository) CreateNews(ctx context.Context, input NewsInput) (News, error) {
	id, err := newID()
	if err != nil {
		return News{}, err
	}

	now := time.Now().UTC()
	publishedAt := now
	if input.PublishedAt != nil {
		publishedAt = input.PublishedAt.UTC()
	}

	n := News{
		ID:          id,
		Title:       input.Title,
		Excerpt:     input.Excerpt,
		Content:     input.Content,
		ImageURL:    input.ImageURL,
		Status:      input.Status,
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO news (id, title, excerpt, content, image_url, status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, n.ID, n.Title, n.Excerpt, n.Content, n.ImageURL, string(n.Status), n.PublishedAt, now)
	if err != nil {
		return News{}, fmt.Errorf("insert news: %w", err)
	}

	return n, nil
}

// UpdateNews keeps the stored published_at when the input leaves it unset.
func (r *Repository) UpdateNews(ctx context.Context, id string, input NewsInput) (News, error) {
	var publishedAt *time.Time
	if input.PublishedAt != nil {
		value := input.PublishedAt.UTC()
		publishedAt = &value
	}

	n, err := scanNews(r.db.QueryRow(ctx, `
		UPDATE news
		SET title = $2, excerpt = $3, content = $4, image_url = $5, status = $6,
			published_at = COALESCE($7, published_at), updated_at = $8
		WHERE id = $1
		RETURNING `+newsColumns,
		id, input.Title, input.Excerpt, input.Content, input.ImageURL, string(input.Status), publishedAt, time.Now().UTC()))
	if err != nil {
		return News{}, notFoundOr(err, "update news")
	}

	return n, nil
}

func (r *Repository) DeleteNews(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM news WHERE id = $1`, id, "news")
}

// ListMasses is ordered by weekday and then time of day.
func (r *Repository) ListMasses(ctx context.Context) ([]Mass, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+massColumns+`
		FROM masses m
		LEFT JOIN chapels c ON c.id = m.chapel_id
		ORDER BY m.day_of_week ASC, m.time ASC
		LIMIT $1
	`, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("query masses: %w", err)
	}

	return collect(rows, scanMass, "mass")
}

func (r *Repository) GetMass(ctx context.Context, id string) (Mass, error) {
	m, err := scanMass(r.db.QueryRow(ctx, `
		SELECT `+massColumns+`
		FROM masses m
		LEFT JOIN chapels c ON c.id = m.chapel_id
		WHERE m.id = $1
	`, id))
	if err != nil {
		return Mass{}, notFoundOr(err, "query mass")
	}
	return m, nil
}

func (r *Repository) CreateMass(ctx context.Context, input MassInput) (Mass, error) {
	id, err := newID()
	if err != nil {
		return Mass{}, err
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `
		INSERT INTO masses (id, chapel_id, day_of_week, time, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id, nullableID(input.ChapelID), *input.DayOfWeek, input.Time, input.Description, now)
	if err != nil {
		return Mass{}, chapelRefOr(err, "insert mass")
	}

	return r.GetMass(ctx, id)
}

func (r *Repository) UpdateMass(ctx context.Context, id string, input MassInput) (Mass, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE masses
		SET chapel_id = $2, day_of_week = $3, time = $4, description = $5, updated_at = $6
		WHERE id = $1
	`, id, nullableID(input.ChapelID), *input.DayOfWeek, input.Time, input.Description, time.Now().UTC())
	if err != nil {
		return Mass{}, chapelRefOr(err, "update mass")
	}
	if tag.RowsAffected() == 0 {
		return Mass{}, pgx.ErrNoRows
	}

	return r.GetMass(ctx, id)
}

func (r *Repository) DeleteMass(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM masses WHERE id = $1`, id, "mass")
}

func (r *Repository) ListPastorals(ctx context.Context, includeInactive bool) ([]Pastoral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+pastoralColumns+`
		FROM pastorals
		WHERE ($1 OR status = 'active')
		ORDER BY name ASC
		LIMIT $2
	`, includeInactive, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("query pastorals: %w", err)
	}

	return collect(rows, scanPastoral, "pastoral")
}

func (r *Repository) GetPastoral(ctx context.Context, id string) (Pastoral, error) {
	p, err := scanPastoral(r.db.QueryRow(ctx, `SELECT `+pastoralColumns+` FROM pastorals WHERE id = $1`, id))
	if err != nil {
		return Pastoral{}, notFoundOr(err, "query pastoral")
	}
	return p, nil
}

func (r *Repository) CreatePastoral(ctx context.Context, input PastoralInput) (Pastoral, error) {
	id, err := newID()
	if err != nil {
		return Pastoral{}, err
	}

	now := time.Now().UTC()
	p := Pastoral{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Coordinator: input.Coordinator,
		Email:       input.Email,
		Phone:       input.Phone,
		MeetingDay:  input.MeetingDay,
		MeetingTime: input.MeetingTime,
		ImageURL:    input.ImageURL,
		Status:      input.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO pastorals (id, name, description, coordinator, email, phone, meeting_day, meeting_time, image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, p.ID, p.Name, p.Description, p.Coordinator, p.Email, p.Phone, p.MeetingDay, p.MeetingTime, p.ImageURL, string(p.Status), now)
	if err != nil {
		return Pastoral{}, fmt.Errorf("insert pastoral: %w", err)
	}

	return p, nil
}

func (r *Repository) UpdatePastoral(ctx context.Context, id string, input PastoralInput) (Pastoral, error) {
	p, err := scanPastoral(r.db.QueryRow(ctx, `
		UPDATE pastorals
		SET name = $2, description = $3, coordinator = $4, email = $5, phone = $6,
			meeting_day = $7, meeting_time = $8, image_url = $9, status = $10, updated_at = $11
		WHERE id = $1
		RETURNING `+pastoralColumns,
		id, input.Name, input.Description, input.Coordinator, input.Email, input.Phone,
		input.MeetingDay, input.MeetingTime, input.ImageURL, string(input.Status), time.Now().UTC()))
	if err != nil {
		return Pastoral{}, notFoundOr(err, "update pastoral")
	}

	return p, nil
}

func (r *Repository) DeletePastoral(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM pastorals WHERE id = $1`, id, "pastoral")
}

func (r *Repository) ListChapels(ctx context.Context, includeInactive bool) ([]Chapel, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+chapelColumns+`
		FROM chapels
		WHERE ($1 OR status = 'active')
		ORDER BY name ASC
		LIMIT $2
	`, includeInactive, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("query chapels: %w", err)
	}

	return collect(rows, scanChapel, "chapel")
}

func (r *Repository) GetChapel(ctx context.Context, id string) (Chapel, error) {
	c, err := scanChapel(r.db.QueryRow(ctx, `SELECT `+chapelColumns+` FROM chapels WHERE id = $1`, id))
	if err != nil {
		return Chapel{}, notFoundOr(err, "query chapel")
	}
	return c, nil
}

func (r *Repository) CreateChapel(ctx context.Context, input ChapelInput) (Chapel, error) {
	id, err := newID()
	if err != nil {
		return Chapel{}, err
	}

	now := time.Now().UTC()
	c := Chapel{
		ID:           id,
		Name:         input.Name,
		Neighborhood: input.Neighborhood,
		Address:      input.Address,
		Phone:        input.Phone,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO chapels (id, name, neighborhood, address, phone, description, image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, c.ID, c.Name, c.Neighborhood, c.Address, c.Phone, c.Description, c.ImageURL, string(c.Status), now)
	if err != nil {
		return Chapel{}, fmt.Errorf("insert chapel: %w", err)
	}

	return c, nil
}

func (r *Repository) UpdateChapel(ctx context.Context, id string, input ChapelInput) (Chapel, error) {
	c, err := scanChapel(r.db.QueryRow(ctx, `
		UPDATE chapels
		SET name = $2, neighborhood = $3, address = $4, phone = $5, description = $6,
			image_url = $7, status = $8, updated_at = $9
		WHERE id = $1
		RETURNING `+chapelColumns,
		id, input.Name, input.Neighborhood, input.Address, input.Phone, input.Description,
		input.ImageURL, string(input.Status), time.Now().UTC()))
	if err != nil {
		return Chapel{}, notFoundOr(err, "update chapel")
	}

	return c, nil
}

// DeleteChapel leaves masses in place; their chapel_id is cleared by the
// foreign key.
func (r *Repository) DeleteChapel(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM chapels WHERE id = $1`, id, "chapel")
}

func (r *Repository) deleteByID(ctx context.Context, query, id, entity string) error {
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error), entity string) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", entity, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", entity, err)
	}

	return items, nil
}

func scanNews(row pgx.Row) (News, error) {
	var n News
	var status string
	if err := row.Scan(&n.ID, &n.Title, &n.Excerpt, &n.Content, &n.ImageURL, &status, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return News{}, err
	}
	n.Status = Status(status)
	return n, nil
}

func scanMass(row pgx.Row) (Mass, error) {
	var m Mass
	if err := row.Scan(&m.ID, &m.ChapelID, &m.ChapelName, &m.DayOfWeek, &m.Time, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Mass{}, err
	}
	return m, nil
}

func scanPastoral(row pgx.Row) (Pastoral, error) {
	var p Pastoral
	var status string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Coordinator, &p.Email, &p.Phone,
		&p.MeetingDay, &p.MeetingTime, &p.ImageURL, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Pastoral{}, err
	}
	p.Status = Status(status)
	return p, nil
}

func scanChapel(row pgx.Row) (Chapel, error) {
	var c Chapel
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Neighborhood, &c.Address, &c.Phone, &c.Description,
		&c.ImageURL, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Chapel{}, err
	}
	c.Status = Status(status)
	return c, nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid v7: %w", err)
	}
	return id.String(), nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// notFoundOr passes pgx.ErrNoRows through unwrapped so handlers can map it
// to 404.
func notFoundOr(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%s: %w", action, err)
}

func chapelRefOr(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrChapelNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}
