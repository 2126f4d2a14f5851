package domain

import "time"

const (
	RelationshipPending  = "pending"
	RelationshipActive   = "active"
	RelationshipInactive = "inactive"
)

// UserRelationship user_relationships 表: subject cares for / belongs with target
type UserRelationship struct {
	RelationshipID   string    `json:"relationship_id" db:"relationship_id"`
	SubjectUserID    string    `json:"subject_user_id" db:"subject_user_id"`
	TargetUserID     string    `json:"target_user_id" db:"target_user_id"`
	RelationshipType string    `json:"relationship_type" db:"relationship_type"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

func (r UserRelationship) IsActive() bool { return r.Status == RelationshipActive }

type UserRelationshipCreateInput struct {
	SubjectUserID    string `json:"subject_user_id" validate:"required,uuid"`
	TargetUserID     string `json:"target_user_id" validate:"required,uuid,nefield=SubjectUserID"`
	RelationshipType string `json:"relationship_type" validate:"required,nonblank,max=50"`
	Status           string `json:"status" validate:"omitempty,oneof=pending active inactive"`
}

type RelationshipStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending active inactive"`
}
