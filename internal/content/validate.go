package content

import (
	"errors"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var allowedURLChars = regexp.MustCompile(`^[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+$`)
var allowedHost = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
var clockTime = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// localUploadPrefix is where the disk media store serves files from.
const localUploadPrefix = "/uploads/"

const (
	maxTitleLength       = 200
	maxShortTextLength   = 200
	maxDescriptionLength = 2000
	maxBodyLength        = 100000
	maxImageURLLength    = 500
)

func (in *NewsInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Content = strings.TrimSpace(in.Content)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.Title == "" {
		return errors.New("title is required")
	}
	if !validText(in.Title, maxTitleLength) {
		return errors.New("title is invalid")
	}
	if !validText(in.Excerpt, maxDescriptionLength) {
		return errors.New("excerpt is invalid")
	}
	if !validText(in.Content, maxBodyLength) {
		return errors.New("content is invalid")
	}
	if err := validateImageURL(in.ImageURL); err != nil {
		return err
	}

	switch in.Status {
	case "":
		in.Status = StatusPublished
	case StatusPublished, StatusDraft:
	default:
		return errors.New("status must be published or draft")
	}

	return nil
}

func (in *MassInput) normalize() error {
	in.ChapelID = strings.TrimSpace(in.ChapelID)
	in.Time = strings.TrimSpace(in.Time)
	in.Description = strings.TrimSpace(in.Description)

	if in.DayOfWeek == nil {
		return errors.New("day_of_week is required")
	}
	if *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
		return errors.New("day_of_week must be between 0 and 6")
	}
	if !clockTime.MatchString(in.Time) {
		return errors.New("time must use HH:MM")
	}
	if in.ChapelID != "" {
		if _, err := uuid.Parse(in.ChapelID); err != nil {
			return errors.New("chapel_id is invalid")
		}
	}
	if !validText(in.Description, maxDescriptionLength) {
		return errors.New("description is invalid")
	}

	return nil
}

func (in *PastoralInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Coordinator = strings.TrimSpace(in.Coordinator)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.MeetingDay = strings.TrimSpace(in.MeetingDay)
	in.MeetingTime = strings.TrimSpace(in.MeetingTime)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.Name == "" {
		return errors.New("name is required")
	}
	if !validText(in.Name, maxTitleLength) {
		return errors.New("name is invalid")
	}
	if !validText(in.Description, maxDescriptionLength) {
		return errors.New("description is invalid")
	}
	for _, field := range []string{in.Coordinator, in.Phone, in.MeetingDay} {
		if !validText(field, maxShortTextLength) {
			return errors.New("text field is too long")
		}
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return errors.New("email is invalid")
		}
	}
	if in.MeetingTime != "" && !clockTime.MatchString(in.MeetingTime) {
		return errors.New("meeting_time must use HH:MM")
	}
	if err := validateImageURL(in.ImageURL); err != nil {
		return err
	}

	return normalizeActive(&in.Status)
}

func (in *ChapelInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Neighborhood = strings.TrimSpace(in.Neighborhood)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.Name == "" {
		return errors.New("name is required")
	}
	if !validText(in.Name, maxTitleLength) {
		return errors.New("name is invalid")
	}
	for _, field := range []string{in.Neighborhood, in.Address, in.Phone} {
		if !validText(field, maxShortTextLength) {
			return errors.New("text field is too long")
		}
	}
	if !validText(in.Description, maxDescriptionLength) {
		return errors.New("description is invalid")
	}
	if err := validateImageURL(in.ImageURL); err != nil {
		return err
	}

	return normalizeActive(&in.Status)
}

func normalizeActive(status *Status) error {
	switch *status {
	case "":
		*status = StatusActive
	case StatusActive, StatusInactive:
	default:
		return errors.New("status must be active or inactive")
	}
	return nil
}

func validText(value string, max int) bool {
	return utf8.ValidString(value) && len(value) <= max
}

// validateImageURL accepts an empty value, a path under /uploads/, or an
// absolute http(s) link.
func validateImageURL(value string) error {
	if value == "" {
		return nil
	}
	if len(value) > maxImageURLLength || !isASCII(value) || !allowedURLChars.MatchString(value) {
		return errors.New("image_url contains invalid characters")
	}
	if strings.HasPrefix(value, localUploadPrefix) {
		if strings.Contains(value, "..") {
			return errors.New("image_url is invalid")
		}
		return nil
	}

	parsedURL, err := url.ParseRequestURI(value)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return errors.New("image_url must be a valid link")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("image_url must start with http or https")
	}
	if parsedURL.User != nil || !allowedHost.MatchString(parsedURL.Hostname()) {
		return errors.New("image_url host is invalid")
	}

	return nil
}

func isASCII(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] < 32 || value[i] > 126 {
			return false
		}
	}
	return true
}
