package audit

import "time"

const (
	ActionFamilyCreated = "family.created"
	ActionFamilyUpdated = "family.updated"
	ActionFamilyDeleted = "family.deleted"

	ActionMemberCreated = "family_member.created"
	ActionMemberUpdated = "family_member.updated"
	ActionMemberDeleted = "family_member.deleted"

	ActionVictimCreated        = "victim.created"
	ActionVictimUpdated        = "victim.updated"
	ActionVictimDeleted        = "victim.deleted"
	ActionVictimFamilyAttached = "victim.family_attached"

	ActionAidCreated   = "aid_request.created"
	ActionAidUpdated   = "aid_request.updated"
	ActionAidSubmitted = "aid_request.submitted"
	ActionAidValidated = "aid_request.validated"
	ActionAidRefused   = "aid_request.refused"
	ActionAidDeleted   = "aid_request.deleted"

	ActionUserCreated     = "user.created"
	ActionUserActivated   = "user.activated"
	ActionUserDeactivated = "user.deactivated"
)

// Entry is one append-only record of a successful mutation.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"not null;index" json:"actor_id"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	Details   string    `gorm:"type:text;not null" json:"details"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Entry) TableName() string {
	return "action_log_entries"
}

type ListFilter struct {
	ActorID *uint
	Action  string
	Limit   int
	Offset  int
}
