package handler

import "github.com/Sonu113077/rider-earnings-navigator/internal/principal"

func principalView(p *principal.Principal) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{
		"id":          p.ID,
		"username":    p.Username,
		"full_name":   p.FullName,
		"email":       p.Email,
		"mobile":      p.Mobile,
		"role":        p.Role,
		"is_approved": p.IsApproved,
		"is_blocked":  p.IsBlocked,
	}
}
