package identity

import (
	"errors"
	"strings"
)

var ErrNotAdministrator = errors.New("administrator access required")

// AdministratorPolicy decides whether a principal is an administrator.
// One instance is shared by the admin middleware and every service that
// performs admin-only transitions.
type AdministratorPolicy struct {
	emails map[string]struct{}
	ids    map[string]struct{}
}

func NewAdministratorPolicy(emails, userIDs []string) *AdministratorPolicy {
	p := &AdministratorPolicy{
		emails: make(map[string]struct{}, len(emails)),
		ids:    make(map[string]struct{}, len(userIDs)),
	}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	for _, id := range userIDs {
		if id = strings.TrimSpace(id); id != "" {
			p.ids[id] = struct{}{}
		}
	}
	return p
}

// PolicyFromCSV parses the comma separated ADMIN_EMAILS / ADMIN_USER_IDS values.
func PolicyFromCSV(emails, userIDs string) *AdministratorPolicy {
	return NewAdministratorPolicy(parseCSV(emails), parseCSV(userIDs))
}

func (p *AdministratorPolicy) IsAdmin(principal Principal) bool {
	if p == nil || principal.IsZero() {
		return false
	}
	if _, ok := p.ids[principal.ID]; ok {
		return true
	}
	if principal.Email == "" {
		return false
	}
	_, ok := p.emails[strings.ToLower(principal.Email)]
	return ok
}

// Require returns ErrNotAdministrator unless principal is an administrator.
func (p *AdministratorPolicy) Require(principal Principal) error {
	if !p.IsAdmin(principal) {
		return ErrNotAdministrator
	}
	return nil
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
