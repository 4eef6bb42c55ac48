package families

import (
	"net/http"

	familydomain "victim-aid-go/internal/domain/family"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
)

type memberRequest struct {
	LastName       string              `json:"last_name"`
	FirstName      string              `json:"first_name"`
	BirthDate      *commonhandler.Date `json:"birth_date"`
	Sex            string              `json:"sex"`
	Relation       string              `json:"relation"`
	Profession     string              `json:"profession"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email"`
	AdditionalInfo string              `json:"additional_info"`
}

func (req memberRequest) input() familydomain.MemberInput {
	return familydomain.MemberInput{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		BirthDate:      req.BirthDate.Ptr(),
		Sex:            req.Sex,
		Relation:       req.Relation,
		Profession:     req.Profession,
		Phone:          req.Phone,
		Email:          req.Email,
		AdditionalInfo: req.AdditionalInfo,
	}
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	familyID, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}

	members, err := h.Families.ListMembers(r.Context(), actor, familyID)
	if err != nil {
		h.fail(w, r, "members.list", err, "family_id", familyID)
		return
	}
	if members == nil {
		members = []familydomain.Member{}
	}

	commonhandler.WriteJSON(w, http.StatusOK, members)
}

func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	familyID, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}
	var req memberRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	member, err := h.Families.AddMember(r.Context(), actor, familyID, req.input())
	if err != nil {
		h.fail(w, r, "members.create", err, "family_id", familyID)
		return
	}

	commonhandler.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	memberID, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}
	var req memberRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	member, err := h.Families.UpdateMember(r.Context(), actor, memberID, req.input())
	if err != nil {
		h.fail(w, r, "members.update", err, "member_id", memberID)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, member)
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	memberID, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}

	if err := h.Families.RemoveMember(r.Context(), actor, memberID); err != nil {
		h.fail(w, r, "members.delete", err, "member_id", memberID)
		return
	}

	commonhandler.WriteAction(w, "family member removed", "")
}
