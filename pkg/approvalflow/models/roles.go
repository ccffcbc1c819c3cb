package models

import "time"

type GrantRoleRequest struct {
	ActorID   string     `json:"actorId"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type GrantRoleResponse struct {
	ID int64 `json:"id"`
}

type RoleGrantApiResponse struct {
	ID        int64      `json:"id"`
	ActorID   string     `json:"actorId"`
	Role      string     `json:"role"`
	GrantedBy string     `json:"grantedBy"`
	GrantedAt time.Time  `json:"grantedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}
