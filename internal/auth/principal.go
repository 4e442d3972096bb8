// Package auth verifies volunteer credentials and issues session tokens.
//
// The sync core never inspects credentials itself; it consumes the Principal
// this package resolves for a connection.
package auth

import "github.com/okian/helium/internal/domain/model"

// Principal is the authenticated identity and permission flags associated
// with a connection.
type Principal struct {
	VolunteerID int64
	Login       string
	CanAccess   bool
	CanManage   bool
}

// principalFor projects a volunteer record onto its connection principal.
func principalFor(v *model.Volunteer) *Principal {
	return &Principal{
		VolunteerID: v.ID,
		Login:       v.Login,
		CanAccess:   v.CanAccess,
		CanManage:   v.CanManage,
	}
}
