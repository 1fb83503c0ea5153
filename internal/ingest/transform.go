package ingest

import (
	"strings"

	"github.com/terra-clan/project-explorer/internal/catalog"
	"github.com/terra-clan/project-explorer/internal/models"
)

// Fallback values for incomplete team records
const (
	VirtualLocation  = "Virtual / Global"
	UnknownCity      = "Unknown City"
	UnknownChallenge = "Unknown Challenge"
	Untitled         = "Untitled"
	NoLink           = "N/A"
)

// FormatLocation renders a location as "city, country". The city is the
// display name, then the title, then UnknownCity.
func FormatLocation(loc *LocationDetails) string {
	if loc == nil || *loc == (LocationDetails{}) {
		return VirtualLocation
	}

	city := loc.DisplayName
	if strings.TrimSpace(city) == "" {
		city = loc.Title
	}
	if city == "" {
		city = UnknownCity
	}

	if loc.Country != "" {
		return city + ", " + loc.Country
	}
	return city
}

// JoinBadges joins nomination then award badges with ", ", or returns nil
// when the team has none
func JoinBadges(t Team) *string {
	badges := make([]string, 0, len(t.NominationBadges)+len(t.AwardBadges))
	badges = append(badges, t.NominationBadges...)
	badges = append(badges, t.AwardBadges...)
	if len(badges) == 0 {
		return nil
	}
	joined := strings.Join(badges, ", ")
	return &joined
}

// ToBatch converts fetched teams into catalog rows. Locations and challenges
// are emitted for every team that carries an id; projects only for teams
// with a challenge.
func ToBatch(teams []Team) *catalog.Fixture {
	batch := &catalog.Fixture{}

	for _, t := range teams {
		name := Untitled
		switch {
		case t.ProjectDetails != nil && t.ProjectDetails.Name != "":
			name = t.ProjectDetails.Name
		case t.Title != "":
			name = t.Title
		}

		link := NoLink
		if t.Meta != nil && t.Meta.RelativeURL != "" {
			link = t.Meta.RelativeURL
		}

		var locationID *string
		if loc := t.LocationDetails; loc != nil && loc.ID != "" {
			id := loc.ID
			locationID = &id
			batch.Locations = append(batch.Locations, models.Location{
				ID:          loc.ID,
				DisplayName: FormatLocation(loc),
				Country:     loc.Country,
			})
		}

		ch := t.ChallengeDetails
		if ch == nil || ch.ID == "" {
			continue
		}
		title := ch.Title
		if title == "" {
			title = UnknownChallenge
		}
		batch.Challenges = append(batch.Challenges, models.Challenge{
			ID:          ch.ID,
			Title:       title,
			Description: ch.Excerpt,
		})

		challengeID := ch.ID
		batch.Projects = append(batch.Projects, models.Project{
			Name:        name,
			LocationID:  locationID,
			ChallengeID: &challengeID,
			Badges:      JoinBadges(t),
			Link:        link,
		})
	}

	return batch
}
