package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hackdesk_backend/internal/events"
	"hackdesk_backend/internal/messaging/repository"
	"hackdesk_backend/platform/apperr"
	"hackdesk_backend/platform/logger"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListRecipients(ctx context.Context, status string, leaderOnly bool) ([]repository.Recipient, error) {
	args := m.Called(ctx, status, leaderOnly)
	return args.Get(0).([]repository.Recipient), args.Error(1)
}

func (m *mockRepo) LogSend(ctx context.Context, entry repository.SendLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepo) GetEmailStats(ctx context.Context) (repository.EmailStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.EmailStats), args.Error(1)
}

func (m *mockRepo) GetRecipientCounts(ctx context.Context) (repository.RecipientCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.RecipientCounts), args.Error(1)
}

func (m *mockRepo) CreateCampaign(ctx context.Context, c *repository.Campaign) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockRepo) GetCampaign(ctx context.Context, id uuid.UUID) (*repository.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Campaign), args.Error(1)
}

func (m *mockRepo) MarkCampaignRunning(ctx context.Context, id uuid.UUID, total int) error {
	args := m.Called(ctx, id, total)
	return args.Error(0)
}

func (m *mockRepo) FinishCampaign(ctx context.Context, id uuid.UUID, status string, sent, failed int, errMsg string) error {
	args := m.Called(ctx, id, status, sent, failed, errMsg)
	return args.Error(0)
}

// fakeSender records recipients in order and fails the emails it is told
// to fail.
type fakeSender struct {
	sentTo []string
	fail   map[string]error
}

func (f *fakeSender) Send(ctx context.Context, toEmail, subject, htmlContent string) error {
	f.sentTo = append(f.sentTo, toEmail)
	if err, ok := f.fail[toEmail]; ok {
		return err
	}
	return nil
}

type testConfig struct{}

func (testConfig) GetSendInterval() time.Duration           { return time.Millisecond }
func (testConfig) GetMaxReportedSendErrors() int            { return 10 }
func (testConfig) GetRecipientCountCacheTTL() time.Duration { return time.Minute }

func newTestService(t *testing.T, repo *mockRepo, sender *fakeSender) *Service {
	t.Helper()
	svc, err := New(repo, sender, testConfig{}, logger.New("development"))
	require.NoError(t, err)
	return svc
}

func recipients(emails ...string) []repository.Recipient {
	out := make([]repository.Recipient, 0, len(emails))
	for _, e := range emails {
		out = append(out, repository.Recipient{Email: e, Name: "Member", TeamName: "Team X"})
	}
	return out
}

// A failed recipient must not stop the rest of the batch.
func TestDispatchIsolatesPerRecipientFailures(t *testing.T) {
	repo := new(mockRepo)
	sender := &fakeSender{fail: map[string]error{"c@x.dev": errors.New("mailbox full")}}
	svc := newTestService(t, repo, sender)

	repo.On("LogSend", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SendToRecipients(context.Background(),
		recipients("a@x.dev", "b@x.dev", "c@x.dev", "d@x.dev", "e@x.dev"),
		"Hello {{name}}", "<p>Hi {{name}} from {{teamName}}</p>")
	require.NoError(t, err)

	assert.Equal(t, 4, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, []string{"a@x.dev", "b@x.dev", "c@x.dev", "d@x.dev", "e@x.dev"}, sender.sentTo)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "c@x.dev", result.Errors[0].Email)
	assert.Contains(t, result.Errors[0].Error, "mailbox full")
}

func TestDispatchLogsEveryAttempt(t *testing.T) {
	repo := new(mockRepo)
	sender := &fakeSender{fail: map[string]error{"b@x.dev": errors.New("bounced")}}
	svc := newTestService(t, repo, sender)

	var statuses []string
	repo.On("LogSend", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		statuses = append(statuses, args.Get(1).(repository.SendLog).Status)
	}).Return(nil)

	_, err := svc.SendToRecipients(context.Background(),
		recipients("a@x.dev", "b@x.dev"), "s", "<p>b</p>")
	require.NoError(t, err)
	assert.Equal(t, []string{repository.SendStatusSent, repository.SendStatusFailed}, statuses)
}

func TestDispatchCapsReportedErrors(t *testing.T) {
	repo := new(mockRepo)
	sender := &fakeSender{fail: map[string]error{}}
	svc := newTestService(t, repo, sender)
	repo.On("LogSend", mock.Anything, mock.Anything).Return(nil)

	var recs []repository.Recipient
	for i := 0; i < 15; i++ {
		email := string(rune('a'+i)) + "@x.dev"
		sender.fail[email] = errors.New("down")
		recs = append(recs, repository.Recipient{Email: email})
	}

	result, err := svc.SendToRecipients(context.Background(), recs, "s", "b")
	require.NoError(t, err)
	assert.Equal(t, 15, result.Failed)
	assert.Len(t, result.Errors, 10, "reported errors are capped; the communication log keeps the rest")
}

func TestDispatchPersonalizesPerRecipient(t *testing.T) {
	repo := new(mockRepo)
	sender := &fakeSender{}
	svc := newTestService(t, repo, sender)

	var contents []string
	repo.On("LogSend", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		contents = append(contents, args.Get(1).(repository.SendLog).Content)
	}).Return(nil)

	recs := []repository.Recipient{
		{Email: "asha@x.dev", Name: "Asha", TeamName: "Alpha"},
		{Email: "bilal@x.dev", Name: "Bilal", TeamName: "Beta"},
	}
	_, err := svc.SendToRecipients(context.Background(), recs, "Hi {{name}}", "<p>{{name}} / {{teamName}} / {{email}}</p>")
	require.NoError(t, err)

	require.Len(t, contents, 2)
	assert.Equal(t, "<p>Asha / Alpha / asha@x.dev</p>", contents[0])
	assert.Equal(t, "<p>Bilal / Beta / bilal@x.dev</p>", contents[1])
}

func TestSendToGroupRejectsUnknownGroup(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(t, repo, &fakeSender{})

	_, err := svc.SendToGroup(context.Background(), "everyone-ever", "s", "b")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	repo.AssertNotCalled(t, "ListRecipients", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendVerificationRemindersTargetsUnverifiedLeaders(t *testing.T) {
	repo := new(mockRepo)
	sender := &fakeSender{}
	svc := newTestService(t, repo, sender)

	repo.On("ListRecipients", mock.Anything, "PENDING", true).
		Return(recipients("leader@x.dev"), nil)
	repo.On("LogSend", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SendVerificationReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	repo.AssertExpectations(t)
}

func newCacheBackedService(t *testing.T, repo *mockRepo) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := newTestService(t, repo, &fakeSender{})
	svc.SetRecipientCountCache(client)
	return svc, mr
}

func TestRecipientCountsCached(t *testing.T) {
	repo := new(mockRepo)
	svc, _ := newCacheBackedService(t, repo)

	repo.On("GetRecipientCounts", mock.Anything).
		Return(repository.RecipientCounts{UnverifiedAll: 7, All: 12}, nil).Once()

	first, err := svc.RecipientCounts(context.Background())
	require.NoError(t, err)
	second, err := svc.RecipientCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 7, second.UnverifiedAll)
	repo.AssertNumberOfCalls(t, "GetRecipientCounts", 1)
}

func TestRecipientCountsInvalidatedByImportEvent(t *testing.T) {
	repo := new(mockRepo)
	svc, _ := newCacheBackedService(t, repo)

	repo.On("GetRecipientCounts", mock.Anything).
		Return(repository.RecipientCounts{All: 5}, nil).Once()
	_, err := svc.RecipientCounts(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.HandleTeamsImported(context.Background(), events.TeamsImported{BaseEvent: events.NewBaseEvent()}))

	repo.On("GetRecipientCounts", mock.Anything).
		Return(repository.RecipientCounts{All: 9}, nil).Once()
	counts, err := svc.RecipientCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, counts.All)
	repo.AssertNumberOfCalls(t, "GetRecipientCounts", 2)
}

func TestProcessCampaignCompletes(t *testing.T) {
	repo := new(mockRepo)
	sender := &fakeSender{}
	svc := newTestService(t, repo, sender)
	id := uuid.New()

	repo.On("GetCampaign", mock.Anything, id).Return(&repository.Campaign{
		ID:          id,
		Subject:     "s",
		HTMLContent: "<p>b</p>",
		TargetGroup: GroupVerifiedAll,
		Status:      repository.CampaignPending,
	}, nil)
	repo.On("ListRecipients", mock.Anything, "VERIFIED", false).
		Return(recipients("a@x.dev", "b@x.dev"), nil)
	repo.On("MarkCampaignRunning", mock.Anything, id, 2).Return(nil)
	repo.On("LogSend", mock.Anything, mock.Anything).Return(nil)
	repo.On("FinishCampaign", mock.Anything, id, repository.CampaignCompleted, 2, 0, "").Return(nil)

	require.NoError(t, svc.ProcessCampaign(context.Background(), id))
	repo.AssertExpectations(t)
}
