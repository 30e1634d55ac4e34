package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackdesk_backend/internal/teams/domain"
	"hackdesk_backend/internal/teams/repository"
	"hackdesk_backend/platform/apperr"
	"hackdesk_backend/platform/logger"
)

// fakeRepo is a stateful in-memory repository so the idempotency and
// replace-all properties can be asserted against real reconciliation state.
type fakeRepo struct {
	teams      map[string]*repository.TeamWithMembers
	jobs       []repository.ImportJob
	failUpsert map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		teams:      make(map[string]*repository.TeamWithMembers),
		failUpsert: make(map[string]error),
	}
}

func (f *fakeRepo) ListTeamRefs(ctx context.Context) ([]repository.TeamRef, error) {
	refs := make([]repository.TeamRef, 0, len(f.teams))
	for _, t := range f.teams {
		refs = append(refs, repository.TeamRef{ID: t.ID, ExternalID: t.ExternalID})
	}
	return refs, nil
}

func (f *fakeRepo) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	for ext, t := range f.teams {
		if t.ID == id {
			delete(f.teams, ext)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) UpsertTeam(ctx context.Context, agg domain.TeamAggregate, syncedAt time.Time) (bool, error) {
	if err, ok := f.failUpsert[agg.ExternalID]; ok {
		return false, err
	}

	existing, ok := f.teams[agg.ExternalID]
	if !ok {
		existing = &repository.TeamWithMembers{
			Team: repository.Team{ID: uuid.New(), ExternalID: agg.ExternalID},
		}
		f.teams[agg.ExternalID] = existing
	}
	existing.Name = agg.Name
	existing.Organization = agg.Organization
	existing.VerificationStatus = agg.Status
	existing.MemberCount = len(agg.Members)
	existing.LastSyncedAt = syncedAt

	existing.Members = existing.Members[:0]
	for _, m := range agg.Members {
		existing.Members = append(existing.Members, repository.TeamMember{
			ID: uuid.New(), TeamID: existing.ID,
			FullName: m.FullName, Email: m.Email, Phone: m.Phone, IsLeader: m.IsLeader,
		})
	}
	return !ok, nil
}

func (f *fakeRepo) GetStats(ctx context.Context) (repository.Stats, error) {
	var stats repository.Stats
	for _, t := range f.teams {
		stats.Total++
		switch t.VerificationStatus {
		case domain.StatusVerified:
			stats.Verified++
		case domain.StatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
		}
	}
	return stats, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status string) ([]repository.TeamWithMembers, error) {
	var out []repository.TeamWithMembers
	for _, t := range f.teams {
		if t.VerificationStatus == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListContactsByStatus(ctx context.Context, status string) ([]repository.TeamContact, error) {
	var out []repository.TeamContact
	for _, t := range f.teams {
		if status != "" && t.VerificationStatus != status {
			continue
		}
		out = append(out, repository.TeamContact{ExternalID: t.ExternalID, Name: t.Name})
	}
	return out, nil
}

func (f *fakeRepo) MarkVerified(ctx context.Context, externalID string) error {
	t, ok := f.teams[externalID]
	if !ok {
		return apperr.NotFound("team not found")
	}
	t.VerificationStatus = domain.StatusVerified
	return nil
}

func (f *fakeRepo) CreateImportJob(ctx context.Context, job repository.ImportJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeRepo) SetImportJobArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	return nil
}

func (f *fakeRepo) ListImportJobs(ctx context.Context, limit int) ([]repository.ImportJob, error) {
	return f.jobs, nil
}

type importConfig struct{}

func (importConfig) GetDefaultCountryCode() string { return "91" }
func (importConfig) GetCSVHeaderOffset() int       { return 1 }
func (importConfig) GetImportMaxFileSize() int64   { return 10 << 20 }

func newTestService(repo repository.Repository) *Service {
	return New(repo, nil, importConfig{}, logger.New("development"))
}

const csvHeader = "Team ID,Team Name,Candidate Role,Candidate's Name,Candidate's Email,Candidate's Mobile,Organisation,Reg. Status\n"

func csvFor(rows ...string) []byte {
	return []byte(csvHeader + strings.Join(rows, "\n") + "\n")
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	data := csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,9876543210,IIT,Complete",
		"T1,Alpha,Member,Bilal,bilal@x.dev,9876543211,IIT,Complete",
		"T2,Beta,Team Leader,Chandra,chandra@x.dev,9876543212,NIT,Incomplete",
	)

	first, err := svc.Import(context.Background(), "reg.csv", data, true)
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalTeams)
	assert.Equal(t, 2, first.NewTeams)
	assert.Equal(t, 0, first.UpdatedTeams)
	assert.Equal(t, 0, first.RemovedTeams)

	t1ID := repo.teams["T1"].ID

	second, err := svc.Import(context.Background(), "reg.csv", data, true)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewTeams)
	assert.Equal(t, 2, second.UpdatedTeams)
	assert.Equal(t, 0, second.RemovedTeams)
	assert.Empty(t, second.Errors)

	// Identity continuity: the surviving team keeps its surrogate key.
	assert.Equal(t, t1ID, repo.teams["T1"].ID)
}

func TestImportRemovesAbsentTeams(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Import(context.Background(), "reg.csv", csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,,IIT,Complete",
		"T2,Beta,Team Leader,Chandra,chandra@x.dev,,NIT,Complete",
	), true)
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), "reg.csv", csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,,IIT,Complete",
	), true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RemovedTeams)
	assert.Equal(t, 1, result.UpdatedTeams)
	_, exists := repo.teams["T2"]
	assert.False(t, exists, "T2 was absent from the second upload and must be deleted")
}

func TestImportWithoutReplaceAllKeepsAbsentTeams(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Import(context.Background(), "reg.csv", csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,,IIT,Complete",
	), true)
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), "reg.csv", csvFor(
		"T2,Beta,Team Leader,Chandra,chandra@x.dev,,NIT,Complete",
	), false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.RemovedTeams)
	assert.Contains(t, repo.teams, "T1")
	assert.Contains(t, repo.teams, "T2")
}

// A failing team must not abort the rest of the batch.
func TestImportIsolatesPerTeamFailures(t *testing.T) {
	repo := newFakeRepo()
	repo.failUpsert["T2"] = fmt.Errorf("deadlock detected")
	svc := newTestService(repo)

	result, err := svc.Import(context.Background(), "reg.csv", csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,,IIT,Complete",
		"T2,Beta,Team Leader,Chandra,chandra@x.dev,,NIT,Complete",
		"T3,Gamma,Team Leader,Dipti,dipti@x.dev,,BITS,Complete",
	), true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.NewTeams)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "T2")
	assert.Contains(t, repo.teams, "T1")
	assert.Contains(t, repo.teams, "T3")
}

func TestImportRecordsAuditJob(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	result, err := svc.Import(context.Background(), "export.csv", csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,,IIT,Complete",
		",,Member,No Team,noteam@x.dev,,IIT,Complete",
	), true)
	require.NoError(t, err)

	require.Len(t, repo.jobs, 1)
	job := repo.jobs[0]
	assert.Equal(t, result.JobID, job.ID)
	assert.Equal(t, "export.csv", job.FileName)
	assert.Equal(t, 1, job.TotalTeams)
	assert.Equal(t, 1, job.SkippedRows)
}

func TestImportRejectsUnrecognizedCSV(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Import(context.Background(), "junk.csv", []byte("a,b,c\n1,2,3\n"), true)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestImportHandlesByteOrderMarkedHeader(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	// Excel-exported CSVs carry a UTF-8 BOM glued to the first header cell.
	data := append([]byte("\ufeff"), csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,9876543210,IIT,Complete",
	)...)

	result, err := svc.Import(context.Background(), "excel.csv", data, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalTeams)
	require.Contains(t, repo.teams, "T1")
	assert.Equal(t, "Alpha", repo.teams["T1"].Name)
}

func TestSkippedRecipientsReplacedByNextImport(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Import(context.Background(), "a.csv", csvFor(
		",,Member,First Orphan,first@x.dev,,IIT,Complete",
	), true)
	require.NoError(t, err)
	require.Len(t, svc.SkippedRecipients(), 1)
	assert.Equal(t, "first@x.dev", svc.SkippedRecipients()[0].Email)

	_, err = svc.Import(context.Background(), "b.csv", csvFor(
		"T1,Alpha,Team Leader,Asha,asha@x.dev,,IIT,Complete",
	), true)
	require.NoError(t, err)
	assert.Empty(t, svc.SkippedRecipients(), "skipped rows are replaced wholesale by the next import")
}

func TestExportContactsValidatesStatus(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.ExportContacts(context.Background(), "BOGUS")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
