package chathub

import (
	"strings"

	"chatterbox/backend/internal/models"
)

// MatchPartner resolves partner picker input against the online roster and
// returns the partner's username as the roster spells it. Names compare
// case-insensitively.
func MatchPartner(roster []models.User, self models.User, input string) (string, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return "", ErrNoTarget
	}
	if self.Username != "" && models.SameName(name, self.Username) {
		return "", ErrSelfTarget
	}

	for _, u := range OnlinePartners(roster, self) {
		if models.SameName(u.Username, name) {
			return u.Username, nil
		}
	}
	return "", ErrPartnerOffline
}

// OnlinePartners returns the roster without self, in roster order.
func OnlinePartners(roster []models.User, self models.User) []models.User {
	out := make([]models.User, 0, len(roster))
	for _, u := range roster {
		if u.ID == self.ID && self.ID != "" {
			continue
		}
		out = append(out, u)
	}
	return out
}
