package content

import "time"

type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
)

type News struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url"`
	Status      Status    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewsInput struct {
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	ImageURL    string     `json:"image_url"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

// Mass is a recurring weekly celebration. DayOfWeek follows time.Weekday,
// 0 is Sunday.
type Mass struct {
	ID          string    `json:"id"`
	ChapelID    *string   `json:"chapel_id"`
	ChapelName  string    `json:"chapel_name,omitempty"`
	DayOfWeek   int       `json:"day_of_week"`
	Time        string    `json:"time"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MassInput struct {
	ChapelID    string `json:"chapel_id"`
	DayOfWeek   *int   `json:"day_of_week"`
	Time        string `json:"time"`
	Description string `json:"description"`
}

type Pastoral struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Coordinator string    `json:"coordinator"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	MeetingDay  string    `json:"meeting_day"`
	MeetingTime string    `json:"meeting_time"`
	ImageURL    string    `json:"image_url"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PastoralInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Coordinator string `json:"coordinator"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	MeetingDay  string `json:"meeting_day"`
	MeetingTime string `json:"meeting_time"`
	ImageURL    string `json:"image_url"`
	Status      Status `json:"status"`
}

type Chapel struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Neighborhood string    `json:"neighborhood"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChapelInput struct {
	Name         string `json:"name"`
	Neighborhood string `json:"neighborhood"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	Status       Status `json:"status"`
}
