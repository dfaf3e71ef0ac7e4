package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galactischevrienden/internal/repository"
)

type fakeMailer struct {
	enabled bool
	failFor string
	sent    map[string]ParentOverview
}

func (m *fakeMailer) IsEnabled() bool { return m.enabled }

func (m *fakeMailer) SendWeeklyReport(ctx context.Context, toEmail string, overview ParentOverview) error {
	if toEmail == m.failFor {
		return errors.New("mailbox full")
	}
	if m.sent == nil {
		m.sent = make(map[string]ParentOverview)
	}
	m.sent[toEmail] = overview
	return nil
}

func TestSendWeekly(t *testing.T) {
	db := setupTestDB(t)
	parents := newParentService(db)
	ctx := context.Background()

	require.NoError(t, parents.Register(ctx, "kid-1", "een@example.nl", "1234", true))
	require.NoError(t, parents.Register(ctx, "kid-2", "twee@example.nl", "1234", true))
	require.NoError(t, parents.Register(ctx, "kid-3", "drie@example.nl", "1234", false))

	mailer := &fakeMailer{enabled: true, failFor: "twee@example.nl"}
	svc := NewReportService(repository.NewParentRepository(db), parents, mailer, testLogger())

	sent, err := svc.SendWeekly(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Contains(t, mailer.sent, "een@example.nl")
	assert.Equal(t, "kid-1", mailer.sent["een@example.nl"].ChildID)
	assert.NotContains(t, mailer.sent, "drie@example.nl")
}

func TestSendWeeklyDisabled(t *testing.T) {
	db := setupTestDB(t)
	parents := newParentService(db)
	require.NoError(t, parents.Register(context.Background(), "kid-1", "een@example.nl", "1234", true))

	mailer := &fakeMailer{}
	sent, err := NewReportService(repository.NewParentRepository(db), parents, mailer, testLogger()).SendWeekly(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.sent)
}

func TestReportStartReturnsOnBadSchedule(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReportService(repository.NewParentRepository(db), newParentService(db), &fakeMailer{enabled: true}, testLogger())
	// an invalid schedule returns immediately instead of blocking on ctx
	svc.Start(context.Background(), "not a schedule")
}
