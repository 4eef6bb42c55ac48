package family

import (
	"context"
	"errors"
	"maps"
	"testing"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/domain/audit"
)

type fakeFamilyRepo struct {
	families  map[uint]Family
	members   map[uint]Member
	victims   map[uint]VictimSummary
	victimFam map[uint]uint
	entries   []audit.Entry
	nextID    uint
	failAudit bool
}

func newFakeFamilyRepo() *fakeFamilyRepo {
	return &fakeFamilyRepo{
		families:  make(map[uint]Family),
		members:   make(map[uint]Member),
		victims:   make(map[uint]VictimSummary),
		victimFam: make(map[uint]uint),
		nextID:    100,
	}
}

func (r *fakeFamilyRepo) id() uint {
	r.nextID++
	return r.nextID
}

// Transaction restores the previous state when fn fails.
func (r *fakeFamilyRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	families := maps.Clone(r.families)
	members := maps.Clone(r.members)
	victims := maps.Clone(r.victims)
	victimFam := maps.Clone(r.victimFam)
	entries := append([]audit.Entry(nil), r.entries...)
	if err := fn(r); err != nil {
		r.families, r.members, r.victims, r.victimFam, r.entries = families, members, victims, victimFam, entries
		return err
	}
	return nil
}

func (r *fakeFamilyRepo) AppendEntry(ctx context.Context, entry *audit.Entry) error {
	if r.failAudit {
		return errors.New("audit store down")
	}
	entry.ID = r.id()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeFamilyRepo) ListFamilies(ctx context.Context, scope access.Scope, filter ListFilter) ([]Family, int64, error) {
	var items []Family
	for id, family := range r.families {
		if scope.Restricted() {
			owns, _ := r.HasVictimCreatedBy(ctx, id, *scope.OwnerID)
			if !owns {
				continue
			}
		}
		items = append(items, family)
	}
	return items, int64(len(items)), nil
}

func (r *fakeFamilyRepo) GetFamily(ctx context.Context, id uint) (*Family, error) {
	family, ok := r.families[id]
	if !ok {
		return nil, ErrFamilyNotFound
	}
	return &family, nil
}

func (r *fakeFamilyRepo) HasVictimCreatedBy(ctx context.Context, familyID, userID uint) (bool, error) {
	for victimID, fid := range r.victimFam {
		if fid != familyID {
			continue
		}
		victim := r.victims[victimID]
		if victim.CreatedByID != nil && *victim.CreatedByID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFamilyRepo) ListMembers(ctx context.Context, familyID uint) ([]Member, error) {
	var items []Member
	for _, member := range r.members {
		if member.FamilyID == familyID {
			items = append(items, member)
		}
	}
	return items, nil
}

func (r *fakeFamilyRepo) ListVictims(ctx context.Context, familyID uint) ([]VictimSummary, error) {
	var items []VictimSummary
	for victimID, fid := range r.victimFam {
		if fid == familyID {
			items = append(items, r.victims[victimID])
		}
	}
	return items, nil
}

func (r *fakeFamilyRepo) CreateFamily(ctx context.Context, family *Family) error {
	family.ID = r.id()
	r.families[family.ID] = *family
	return nil
}

func (r *fakeFamilyRepo) UpdateFamily(ctx context.Context, family *Family) error {
	if _, ok := r.families[family.ID]; !ok {
		return ErrFamilyNotFound
	}
	r.families[family.ID] = *family
	return nil
}

func (r *fakeFamilyRepo) DeleteFamily(ctx context.Context, id uint) error {
	delete(r.families, id)
	for memberID, member := range r.members {
		if member.FamilyID == id {
			delete(r.members, memberID)
		}
	}
	for victimID, fid := range r.victimFam {
		if fid == id {
			delete(r.victimFam, victimID)
			delete(r.victims, victimID)
		}
	}
	return nil
}

func (r *fakeFamilyRepo) GetMember(ctx context.Context, id uint) (*Member, error) {
	member, ok := r.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return &member, nil
}

func (r *fakeFamilyRepo) CreateMember(ctx context.Context, member *Member) error {
	member.ID = r.id()
	r.members[member.ID] = *member
	return nil
}

func (r *fakeFamilyRepo) UpdateMember(ctx context.Context, member *Member) error {
	r.members[member.ID] = *member
	return nil
}

func (r *fakeFamilyRepo) DeleteMember(ctx context.Context, id uint) error {
	delete(r.members, id)
	return nil
}

func (r *fakeFamilyRepo) seedFamily(name string) uint {
	id := r.id()
	r.families[id] = Family{ID: id, Name: name, Type: TypeNuclear, EconomicSituation: SituationStable, PersonCount: 1}
	return id
}

func (r *fakeFamilyRepo) seedVictim(familyID, createdBy uint) uint {
	id := r.id()
	r.victims[id] = VictimSummary{ID: id, Matricule: "INCO-" + string(rune('A'+id%26)), CreatedByID: &createdBy}
	r.victimFam[id] = familyID
	return id
}

var (
	agentA      = access.Actor{UserID: 1, Role: access.RoleAgent}
	agentB      = access.Actor{UserID: 2, Role: access.RoleAgent}
	assistant   = access.Actor{UserID: 3, Role: access.RoleAssistant}
	responsable = access.Actor{UserID: 4, Role: access.RoleResponsable}
	admin       = access.Actor{UserID: 5, Role: access.RoleAdmin}
)

func TestDeleteFamilyDeniedForAgentAndAssistant(t *testing.T) {
	repo := newFakeFamilyRepo()
	familyID := repo.seedFamily("Diallo")
	repo.seedVictim(familyID, agentA.UserID)
	svc := NewService(repo, audit.NewLogger())

	for _, actor := range []access.Actor{agentA, assistant} {
		err := svc.Delete(context.Background(), actor, familyID)
		if !errors.Is(err, apperr.ErrPermission) {
			t.Fatalf("expected permission error for %s, got %v", actor.Role, err)
		}
	}
	if _, ok := repo.families[familyID]; !ok {
		t.Fatalf("family must still exist")
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(repo.entries))
	}
}

func TestDeleteFamilyCascadesAndAudits(t *testing.T) {
	repo := newFakeFamilyRepo()
	familyID := repo.seedFamily("Diallo")
	victimID := repo.seedVictim(familyID, agentA.UserID)
	repo.members[repo.id()] = Member{FamilyID: familyID, LastName: "Diallo", FirstName: "Awa"}
	svc := NewService(repo, audit.NewLogger())

	if err := svc.Delete(context.Background(), responsable, familyID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.families[familyID]; ok {
		t.Fatalf("expected family removed")
	}
	if _, ok := repo.victims[victimID]; ok {
		t.Fatalf("expected victim removed with family")
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected members removed, got %d", len(repo.members))
	}
	if len(repo.entries) != 1 || repo.entries[0].Action != audit.ActionFamilyDeleted || repo.entries[0].ActorID != responsable.UserID {
		t.Fatalf("expected one family.deleted entry by responsable, got %+v", repo.entries)
	}
}

func TestCreateFamilyValidatesAndAudits(t *testing.T) {
	repo := newFakeFamilyRepo()
	svc := NewService(repo, audit.NewLogger())

	_, err := svc.Create(context.Background(), agentA, Input{Name: "  ", Type: "tribu"})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields["name"]) == 0 || len(verr.Fields["type"]) == 0 {
		t.Fatalf("expected name and type errors, got %v", verr.Fields)
	}

	created, err := svc.Create(context.Background(), agentA, Input{Name: " Traoré ", City: "Bamako"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Name != "Traoré" || created.Type != TypeNuclear || created.PersonCount != 1 {
		t.Fatalf("unexpected defaults: %+v", created)
	}
	if len(repo.entries) != 1 || repo.entries[0].ActorID != agentA.UserID {
		t.Fatalf("expected one entry by agent, got %+v", repo.entries)
	}

	if _, err := svc.Create(context.Background(), assistant, Input{Name: "X"}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected assistant denied, got %v", err)
	}
}

func TestAgentSeesOnlyFamiliesOfOwnVictims(t *testing.T) {
	repo := newFakeFamilyRepo()
	own := repo.seedFamily("Own")
	repo.seedVictim(own, agentA.UserID)
	other := repo.seedFamily("Other")
	repo.seedVictim(other, agentB.UserID)
	svc := NewService(repo, audit.NewLogger())

	items, total, err := svc.List(context.Background(), agentA, ListFilter{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if total != 1 || items[0].ID != own {
		t.Fatalf("expected only own family, got %+v", items)
	}

	if _, err := svc.Get(context.Background(), agentA, other); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error on direct access, got %v", err)
	}
	if _, err := svc.Update(context.Background(), agentA, other, Input{Name: "Hijack"}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error on update, got %v", err)
	}
	if repo.families[other].Name != "Other" {
		t.Fatalf("family must be unchanged")
	}

	if _, _, err := svc.List(context.Background(), assistant, ListFilter{}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected assistant list denied, got %v", err)
	}
	detail, err := svc.Get(context.Background(), assistant, other)
	if err != nil {
		t.Fatalf("expected assistant view allowed, got %v", err)
	}
	if len(detail.Victims) != 1 {
		t.Fatalf("expected 1 linked victim, got %d", len(detail.Victims))
	}
}

func TestGetFamilyNotFound(t *testing.T) {
	svc := NewService(newFakeFamilyRepo(), audit.NewLogger())
	_, err := svc.Get(context.Background(), admin, 999)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 999 {
		t.Fatalf("expected not found for 999, got %v", err)
	}
}

func TestMemberLifecycle(t *testing.T) {
	repo := newFakeFamilyRepo()
	familyID := repo.seedFamily("Koné")
	repo.seedVictim(familyID, agentA.UserID)
	svc := NewService(repo, audit.NewLogger())

	if _, err := svc.AddMember(context.Background(), agentB, familyID, MemberInput{LastName: "Koné", FirstName: "Ali", Relation: "enfant"}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected other agent denied, got %v", err)
	}

	_, err := svc.AddMember(context.Background(), agentA, familyID, MemberInput{LastName: "Koné", FirstName: "Ali", Relation: "cousin_germain"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	member, err := svc.AddMember(context.Background(), agentA, familyID, MemberInput{LastName: "Koné", FirstName: "Ali", Relation: "enfant", Sex: "m"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if member.Sex != "M" || member.FamilyID != familyID {
		t.Fatalf("unexpected member: %+v", member)
	}

	updated, err := svc.UpdateMember(context.Background(), responsable, member.ID, MemberInput{LastName: "Koné", FirstName: "Aliou", Relation: "enfant"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.FirstName != "Aliou" {
		t.Fatalf("expected updated first name, got %q", updated.FirstName)
	}

	if err := svc.RemoveMember(context.Background(), agentA, member.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.RemoveMember(context.Background(), agentA, member.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after removal, got %v", err)
	}

	if len(repo.entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(repo.entries))
	}
	for _, entry := range repo.entries {
		if entry.ActorID != agentA.UserID && entry.ActorID != responsable.UserID {
			t.Fatalf("unexpected actor %d", entry.ActorID)
		}
	}
}

func TestAuditFailureRollsBackMutation(t *testing.T) {
	repo := newFakeFamilyRepo()
	familyID := repo.seedFamily("Sow")
	repo.failAudit = true
	svc := NewService(repo, audit.NewLogger())

	if _, err := svc.Update(context.Background(), admin, familyID, Input{Name: "Sow-Ba"}); err == nil {
		t.Fatalf("expected error when audit append fails")
	}
	if repo.families[familyID].Name != "Sow" {
		t.Fatalf("expected update rolled back, got %q", repo.families[familyID].Name)
	}
}
