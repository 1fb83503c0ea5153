package models

// Location is a physical or virtual venue a project was submitted from
type Location struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Country     string `json:"country,omitempty" yaml:"country"`
}

// Challenge is a competition track. The description may end with a
// parenthesized theme, e.g. "... (Robotics)".
type Challenge struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Project is a catalog entry as stored
type Project struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	LocationID  *string `json:"location,omitempty" yaml:"location"`
	ChallengeID *string `json:"challenge,omitempty" yaml:"challenge"`
	Badges      *string `json:"badges,omitempty" yaml:"badges"`
	Link        string  `json:"link" yaml:"link"`
}

// ProjectRow is a project joined to its location and challenge display values
type ProjectRow struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Location  *string `json:"location"`
	Challenge *string `json:"challenge"`
	Badges    *string `json:"badges"`
	Link      string  `json:"link"`
}

// ResultPage is one window of search results plus the exact total for the filters
type ResultPage struct {
	Rows  []ProjectRow `json:"rows"`
	Total int          `json:"total"`
}
