package models

// Staff is a bookable practitioner.
type Staff struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

// Room is a bookable physical room. Remote sessions carry no room.
type Room struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
	SortOrder int64  `json:"sort_order" yaml:"sort_order"`
}

// Service is an offered session type with its standard length.
type Service struct {
	ID              int64  `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
	IsActive        bool   `json:"is_active" yaml:"is_active"`
}
