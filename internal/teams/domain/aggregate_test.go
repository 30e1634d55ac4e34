package domain

import "testing"

func row(teamID, teamName, role, name, email, phone, regStatus string) Row {
	return Row{
		TeamID:    teamID,
		TeamName:  teamName,
		Role:      role,
		Name:      name,
		Email:     email,
		Phone:     phone,
		RegStatus: regStatus,
	}
}

func TestAggregateSkipsRowsMissingIdentity(t *testing.T) {
	rows := []Row{
		row("", "", "Member", "No Name", "noname@x.dev", "9876543210", "Complete"),
		row("", "Orphans", "Member", "No ID", "noid@x.dev", "", "Complete"),
		row("T1", "Alpha", "Team Leader", "Asha", "Asha@X.dev", "9876543210", "Complete"),
	}

	aggs, skipped := Aggregate(rows, 1, "91")

	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", len(skipped))
	}

	// Missing team name is checked before missing team id.
	if skipped[0].Reason != ReasonMissingTeamName {
		t.Errorf("skipped[0] reason = %q, want %q", skipped[0].Reason, ReasonMissingTeamName)
	}
	if skipped[1].Reason != ReasonMissingTeamID {
		t.Errorf("skipped[1] reason = %q, want %q", skipped[1].Reason, ReasonMissingTeamID)
	}

	// 1-indexed plus one header line.
	if skipped[0].RowNumber != 2 || skipped[1].RowNumber != 3 {
		t.Errorf("row numbers = %d, %d, want 2, 3", skipped[0].RowNumber, skipped[1].RowNumber)
	}
}

func TestAggregateGroupsByTeamID(t *testing.T) {
	rows := []Row{
		row("T1", "Alpha", "Team Leader", "Asha", "asha@x.dev", "9876543210", "Complete"),
		row("T2", "Beta", "Member", "Chandra", "chandra@x.dev", "", "Incomplete"),
		row("T1", "Alpha Renamed", "Member", "Bilal", "BILAL@x.dev", "+91 98765 43211", "Complete"),
	}

	aggs, skipped := Aggregate(rows, 1, "91")

	if len(skipped) != 0 {
		t.Fatalf("expected no skipped rows, got %d", len(skipped))
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(aggs))
	}

	// First-appearance order, first-seen name wins.
	t1 := aggs[0]
	if t1.ExternalID != "T1" || t1.Name != "Alpha" {
		t.Errorf("t1 = %q/%q, want T1/Alpha", t1.ExternalID, t1.Name)
	}
	if len(t1.Members) != 2 {
		t.Fatalf("t1 member count = %d, want 2", len(t1.Members))
	}
	if t1.Members[1].Email != "bilal@x.dev" {
		t.Errorf("email not lowercased: %q", t1.Members[1].Email)
	}
	if t1.Members[1].Phone != "+919876543211" {
		t.Errorf("phone not normalized: %q", t1.Members[1].Phone)
	}
	if t1.Leader == nil || t1.Leader.FullName != "Asha" {
		t.Errorf("t1 leader = %+v, want Asha", t1.Leader)
	}
	if aggs[1].Leader != nil {
		t.Errorf("t2 has no leader row, leader should be nil")
	}
}

// The team's stored status mirrors the completeness flag of whichever row
// was processed last for that identifier.
func TestAggregateLastRowWinsVerification(t *testing.T) {
	completeLast := []Row{
		row("T1", "Alpha", "Team Leader", "Asha", "a@x.dev", "", "Incomplete"),
		row("T1", "Alpha", "Member", "Bilal", "b@x.dev", "", "Complete"),
	}
	aggs, _ := Aggregate(completeLast, 1, "91")
	if aggs[0].Status != StatusVerified {
		t.Errorf("complete-last status = %q, want VERIFIED", aggs[0].Status)
	}

	incompleteLast := []Row{
		row("T1", "Alpha", "Team Leader", "Asha", "a@x.dev", "", "Complete"),
		row("T1", "Alpha", "Member", "Bilal", "b@x.dev", "", "Incomplete"),
	}
	aggs, _ = Aggregate(incompleteLast, 1, "91")
	if aggs[0].Status != StatusPending {
		t.Errorf("incomplete-last status = %q, want PENDING", aggs[0].Status)
	}
}

func TestAggregateDuplicateLeadersLastWins(t *testing.T) {
	rows := []Row{
		row("T1", "Alpha", "Team Leader", "Asha", "a@x.dev", "", "Complete"),
		row("T1", "Alpha", "Team Leader", "Bilal", "b@x.dev", "", "Complete"),
	}

	aggs, _ := Aggregate(rows, 1, "91")
	agg := aggs[0]

	if agg.Leader == nil || agg.Leader.FullName != "Bilal" {
		t.Fatalf("leader = %+v, want Bilal", agg.Leader)
	}

	leaders := 0
	for _, m := range agg.Members {
		if m.IsLeader {
			leaders++
		}
	}
	if leaders != 1 {
		t.Errorf("member leader flags = %d, want exactly 1", leaders)
	}
}

func TestAggregateSpecExample(t *testing.T) {
	// 3 rows for one team (2 complete, incomplete last) plus a row missing
	// its team name.
	rows := []Row{
		row("T1", "Alpha", "Team Leader", "Asha", "a@x.dev", "", "Complete"),
		row("T1", "Alpha", "Member", "Bilal", "b@x.dev", "", "Complete"),
		row("T1", "Alpha", "Member", "Chandra", "c@x.dev", "", "Incomplete"),
		row("T9", "", "Member", "Dipti", "d@x.dev", "", "Complete"),
	}

	aggs, skipped := Aggregate(rows, 1, "91")

	if len(aggs) != 1 {
		t.Fatalf("totalTeams = %d, want 1", len(aggs))
	}
	if aggs[0].Status != StatusPending {
		t.Errorf("status = %q, want PENDING (incomplete row processed last)", aggs[0].Status)
	}
	if len(aggs[0].Members) != 3 {
		t.Errorf("member count = %d, want 3", len(aggs[0].Members))
	}
	if len(skipped) != 1 || skipped[0].Reason != ReasonMissingTeamName {
		t.Errorf("skipped = %+v, want one row with reason %q", skipped, ReasonMissingTeamName)
	}
}
