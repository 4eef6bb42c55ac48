// Package access decides which role may perform which operation and which
// records a role may see.
package access

import "victim-aid-go/internal/domain/apperr"

type Operation string

const (
	OpFamilyList   Operation = "family.list"
	OpFamilyView   Operation = "family.view"
	OpFamilyCreate Operation = "family.create"
	OpFamilyUpdate Operation = "family.update"
	OpFamilyDelete Operation = "family.delete"

	OpMemberCreate Operation = "member.create"
	OpMemberUpdate Operation = "member.update"
	OpMemberDelete Operation = "member.delete"

	OpVictimList         Operation = "victim.list"
	OpVictimView         Operation = "victim.view"
	OpVictimCreate       Operation = "victim.create"
	OpVictimUpdate       Operation = "victim.update"
	OpVictimDelete       Operation = "victim.delete"
	OpVictimAttachFamily Operation = "victim.attach_family"

	OpAidList     Operation = "aid_request.list"
	OpAidView     Operation = "aid_request.view"
	OpAidCreate   Operation = "aid_request.create"
	OpAidUpdate   Operation = "aid_request.update"
	OpAidSubmit   Operation = "aid_request.submit"
	OpAidValidate Operation = "aid_request.validate"
	OpAidRefuse   Operation = "aid_request.refuse"
	OpAidDelete   Operation = "aid_request.delete"
	OpAidPending  Operation = "aid_request.pending"
	OpAidTracking Operation = "aid_request.tracking"

	OpReportView    Operation = "report.view"
	OpDashboardView Operation = "dashboard.view"

	OpUserList   Operation = "user.list"
	OpUserCreate Operation = "user.create"
	OpUserToggle Operation = "user.toggle"
	OpAuditView  Operation = "audit.view"
)

// Level is how much of an operation a role is granted.
type Level uint8

const (
	LevelNone Level = iota
	LevelOwn
	LevelAll
)

// Actor is the authenticated user a request acts for.
type Actor struct {
	UserID uint
	Role   Role
}

type grants struct {
	agent       Level
	assistant   Level
	responsable Level
	admin       Level
}

func (g grants) forRole(role Role) Level {
	switch role {
	case RoleAgent:
		return g.agent
	case RoleAssistant:
		return g.assistant
	case RoleResponsable:
		return g.responsable
	case RoleAdmin:
		return g.admin
	default:
		return LevelNone
	}
}

var (
	ownOnly       = grants{agent: LevelOwn, responsable: LevelAll, admin: LevelAll}
	ownOrAll      = grants{agent: LevelOwn, assistant: LevelAll, responsable: LevelAll, admin: LevelAll}
	everyone      = grants{agent: LevelAll, assistant: LevelAll, responsable: LevelAll, admin: LevelAll}
	aidDesk       = grants{assistant: LevelAll, responsable: LevelAll, admin: LevelAll}
	supervisors   = grants{responsable: LevelAll, admin: LevelAll}
	administrator = grants{admin: LevelAll}
)

var policy = map[Operation]grants{
	OpFamilyList:   ownOnly,
	OpFamilyView:   ownOrAll,
	OpFamilyCreate: {agent: LevelAll, responsable: LevelAll, admin: LevelAll},
	OpFamilyUpdate: ownOnly,
	OpFamilyDelete: supervisors,

	OpMemberCreate: ownOnly,
	OpMemberUpdate: ownOnly,
	OpMemberDelete: ownOnly,

	OpVictimList:         ownOrAll,
	OpVictimView:         ownOrAll,
	OpVictimCreate:       everyone,
	OpVictimUpdate:       ownOnly,
	OpVictimDelete:       ownOnly,
	OpVictimAttachFamily: ownOnly,

	OpAidList:     aidDesk,
	OpAidView:     aidDesk,
	OpAidCreate:   aidDesk,
	OpAidUpdate:   aidDesk,
	OpAidSubmit:   aidDesk,
	OpAidValidate: supervisors,
	OpAidRefuse:   supervisors,
	OpAidDelete:   supervisors,
	OpAidPending:  supervisors,
	OpAidTracking: everyone,

	OpReportView:    everyone,
	OpDashboardView: everyone,

	OpUserList:   administrator,
	OpUserCreate: administrator,
	OpUserToggle: administrator,
	OpAuditView:  administrator,
}

// Grant returns the level the role holds for op. Unknown operations and
// unknown roles get LevelNone.
func Grant(role Role, op Operation) Level {
	g, ok := policy[op]
	if !ok {
		return LevelNone
	}
	return g.forRole(role)
}

// Authorize reports a PermissionError when role may not perform op at all.
// Record-level ownership is checked separately.
func Authorize(role Role, op Operation) error {
	if Grant(role, op) == LevelNone {
		return &apperr.PermissionError{Operation: string(op), Reason: "role " + role.String() + " not allowed"}
	}
	return nil
}

// Scope narrows queries to the records an actor may see.
type Scope struct {
	OwnerID *uint
}

func (s Scope) Restricted() bool {
	return s.OwnerID != nil
}

// ScopeFor resolves visibility for op. Roles holding only LevelOwn see the
// records they created; everything else is unrestricted.
func ScopeFor(actor Actor, op Operation) Scope {
	if Grant(actor.Role, op) == LevelOwn {
		id := actor.UserID
		return Scope{OwnerID: &id}
	}
	return Scope{}
}

// CheckVictimOwnership enforces the record-level rule for op on a victim
// record created by createdBy.
func CheckVictimOwnership(actor Actor, op Operation, createdBy *uint) error {
	switch Grant(actor.Role, op) {
	case LevelAll:
		return nil
	case LevelOwn:
		if createdBy != nil && *createdBy == actor.UserID {
			return nil
		}
		return &apperr.PermissionError{Operation: string(op), Reason: "record belongs to another user"}
	default:
		return Authorize(actor.Role, op)
	}
}

// CheckFamilyOwnership enforces the record-level rule for op on a family.
// An agent owns a family when it holds at least one victim the agent created.
func CheckFamilyOwnership(actor Actor, op Operation, ownsVictimInFamily bool) error {
	switch Grant(actor.Role, op) {
	case LevelAll:
		return nil
	case LevelOwn:
		if ownsVictimInFamily {
			return nil
		}
		return &apperr.PermissionError{Operation: string(op), Reason: "family not linked to the user's records"}
	default:
		return Authorize(actor.Role, op)
	}
}
