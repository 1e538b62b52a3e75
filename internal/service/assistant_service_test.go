package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/repository/memory"
	"github.com/vedran77/receptionist/internal/vapi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type assistantFixture struct {
	svc      *AssistantService
	repo     *memory.AssistantRepo
	tasks    *memory.ReconciliationRepo
	remote   *fakeVapi
	notifier *recordingNotifier
	logs     *observer.ObservedLogs
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	remote, client := newFakeVapi(t)
	core, logs := observer.New(zapcore.DebugLevel)

	f := &assistantFixture{
		repo:     memory.NewAssistantRepo(),
		tasks:    memory.NewReconciliationRepo(),
		remote:   remote,
		notifier: &recordingNotifier{},
		logs:     logs,
	}
	f.svc = NewAssistantService(f.repo, f.tasks, client, NewLocalLocker(time.Second), f.notifier,
		logging.NewZapLogger(zap.New(core)))
	return f
}

func frontDesk() CreateAssistantInput {
	return CreateAssistantInput{
		Name:          "Front Desk",
		VoiceProvider: "elevenlabs",
		LanguageCode:  "en-US",
		IntroMessage:  "Hello!",
	}
}

func ptr[T any](v T) *T { return &v }

func TestAssistantService_Create(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()

	a, err := f.svc.Create(context.Background(), owner, frontDesk())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "ext-1", a.ExternalID)
	assert.Equal(t, owner, a.OwnerID)
	assert.Equal(t, 1, a.Version)

	stored, err := f.repo.GetByID(context.Background(), owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", stored.Name)

	remote, ok := f.remote.Remote("ext-1")
	require.True(t, ok)
	assert.Equal(t, "Hello!", remote["initial_message"])
	assert.Equal(t, map[string]any{"provider": "elevenlabs", "language": "en-US"}, remote["voice"])
	assert.Equal(t, map[string]any{"businessId": owner.String()}, remote["metadata"])

	require.Len(t, f.notifier.created, 1)
	assert.Equal(t, a.ID, f.notifier.created[0].ID)
}

func TestAssistantService_Create_UpstreamFailureLeavesNoRow(t *testing.T) {
	f := newAssistantFixture(t)
	f.remote.set(func(v *fakeVapi) { v.failCreate = 500 })

	_, err := f.svc.Create(context.Background(), uuid.New(), frontDesk())
	require.Error(t, err)
	assert.ErrorIs(t, err, vapi.ErrUpstream)
	assert.Equal(t, 0, f.repo.Count())
	assert.Empty(t, f.notifier.created)
}

func TestAssistantService_Create_LocalFailureRollsBackRemote(t *testing.T) {
	f := newAssistantFixture(t)
	f.repo.FailCreate = errors.New("db down")

	_, err := f.svc.Create(context.Background(), uuid.New(), frontDesk())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPersisted)

	assert.Equal(t, 0, f.remote.Len(), "provider assistant must be deleted")
	assert.Equal(t, []string{"POST /assistant", "DELETE /assistant/ext-1"}, f.remote.Calls())
	assert.Empty(t, f.tasks.All())
	assert.Empty(t, f.notifier.created)
}

func TestAssistantService_Create_FailedRollbackQueuesTask(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()
	f.repo.FailCreate = errors.New("db down")
	f.remote.set(func(v *fakeVapi) { v.failDelete = 503 })

	_, err := f.svc.Create(context.Background(), owner, frontDesk())
	assert.ErrorIs(t, err, ErrNotPersisted)

	tasks := f.tasks.All()
	require.Len(t, tasks, 1)
	assert.Equal(t, "ext-1", tasks[0].ExternalID)
	assert.Equal(t, owner, tasks[0].OwnerID)
	assert.Contains(t, tasks[0].Reason, "db down")
	assert.Nil(t, tasks[0].ResolvedAt)
}

func TestAssistantService_Create_OrphanIsLogged(t *testing.T) {
	f := newAssistantFixture(t)
	f.repo.FailCreate = errors.New("db down")
	f.tasks.FailCreate = errors.New("db still down")
	f.remote.set(func(v *fakeVapi) { v.failDelete = 503 })

	_, err := f.svc.Create(context.Background(), uuid.New(), frontDesk())
	assert.ErrorIs(t, err, ErrNotPersisted)

	orphans := f.logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, orphans, 1)
	assert.Equal(t, "ext-1", orphans[0].ContextMap()["external_id"])
}

func TestAssistantService_Create_RollbackSurvivesCancelledRequest(t *testing.T) {
	provider := &mockProvider{}
	repo := memory.NewAssistantRepo()
	repo.FailCreate = errors.New("db down")
	svc := NewAssistantService(repo, memory.NewReconciliationRepo(), provider, nil, nil, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	provider.On("CreateAssistant", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&vapi.RemoteAssistant{ID: "ext-9"}, nil)
	provider.On("DeleteAssistant", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), "ext-9").Return(nil)

	_, err := svc.Create(ctx, uuid.New(), frontDesk())
	assert.ErrorIs(t, err, ErrNotPersisted)
	provider.AssertExpectations(t)
}

func TestAssistantService_Update_PartialVoiceKeepsStoredHalf(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()
	a, err := f.svc.Create(context.Background(), owner, frontDesk())
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), owner, a.ID, UpdateAssistantInput{
		AssistantPatch: domain.AssistantPatch{LanguageCode: ptr("fr-FR")},
	})
	require.NoError(t, err)

	assert.Equal(t, "fr-FR", updated.LanguageCode)
	assert.Equal(t, "elevenlabs", updated.VoiceProvider)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, a.ExternalID, updated.ExternalID)

	remote, _ := f.remote.Remote(a.ExternalID)
	assert.Equal(t, map[string]any{"provider": "elevenlabs", "language": "fr-FR"}, remote["voice"])

	require.Len(t, f.notifier.updated, 1)
	assert.Equal(t, 2, f.notifier.updated[0].Version)
}

func TestAssistantService_Update_EmptyPatchMakesNoRemoteCall(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()
	a, err := f.svc.Create(context.Background(), owner, frontDesk())
	require.NoError(t, err)

	got, err := f.svc.Update(context.Background(), owner, a.ID, UpdateAssistantInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, []string{"POST /assistant"}, f.remote.Calls())
}

func TestAssistantService_Update_VersionConflictBeforeRemoteCall(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()
	a, err := f.svc.Create(context.Background(), owner, frontDesk())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), owner, a.ID, UpdateAssistantInput{
		Version:        ptr(7),
		AssistantPatch: domain.AssistantPatch{Name: ptr("Night Line")},
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, []string{"POST /assistant"}, f.remote.Calls())

	// the matching version goes through
	got, err := f.svc.Update(context.Background(), owner, a.ID, UpdateAssistantInput{
		Version:        ptr(1),
		AssistantPatch: domain.AssistantPatch{Name: ptr("Night Line")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Night Line", got.Name)
}

func TestAssistantService_Update_OtherOwnerIsNotFound(t *testing.T) {
	f := newAssistantFixture(t)
	a, err := f.svc.Create(context.Background(), uuid.New(), frontDesk())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), uuid.New(), a.ID, UpdateAssistantInput{
		AssistantPatch: domain.AssistantPatch{Name: ptr("Hijacked")},
	})
	assert.ErrorIs(t, err, ErrAssistantNotFound)
	assert.Equal(t, []string{"POST /assistant"}, f.remote.Calls())
}

func TestAssistantService_Update_ForeignCallerIgnoresHeldLock(t *testing.T) {
	f := newAssistantFixture(t)
	locker, _ := newRedisLocker(t, 10*time.Second, 50*time.Millisecond)
	f.svc.locker = locker
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	a, err := f.svc.Create(ctx, alice, frontDesk())
	require.NoError(t, err)

	unlock, err := locker.Lock(ctx, "assistant:"+a.ID.String())
	require.NoError(t, err)
	defer unlock()

	patch := UpdateAssistantInput{AssistantPatch: domain.AssistantPatch{Name: ptr("Hijacked")}}

	_, errOwned := f.svc.Update(ctx, bob, a.ID, patch)
	_, errMissing := f.svc.Update(ctx, bob, uuid.New(), patch)
	assert.ErrorIs(t, errOwned, ErrAssistantNotFound)
	assert.ErrorIs(t, errMissing, ErrAssistantNotFound)
	assert.NotErrorIs(t, errOwned, ErrLockTimeout)

	// the owner still waits on the lock
	_, err = f.svc.Update(ctx, alice, a.ID, patch)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, []string{"POST /assistant"}, f.remote.Calls())
}

func TestAssistantService_Update_UpstreamFailureKeepsLocalRow(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()
	a, err := f.svc.Create(context.Background(), owner, frontDesk())
	require.NoError(t, err)
	f.remote.set(func(v *fakeVapi) { v.failUpdate = 502 })

	_, err = f.svc.Update(context.Background(), owner, a.ID, UpdateAssistantInput{
		AssistantPatch: domain.AssistantPatch{Name: ptr("Night Line")},
	})
	assert.ErrorIs(t, err, vapi.ErrUpstream)

	stored, err := f.svc.Get(context.Background(), owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", stored.Name)
	assert.Equal(t, 1, stored.Version)
}

func TestAssistantService_Update_ConcurrentUpdatesSerialize(t *testing.T) {
	f := newAssistantFixture(t)
	owner := uuid.New()
	a, err := f.svc.Create(context.Background(), owner, frontDesk())
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Update(context.Background(), owner, a.ID, UpdateAssistantInput{
				AssistantPatch: domain.AssistantPatch{RecordingEnabled: ptr(i%2 == 0)},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	stored, err := f.svc.Get(context.Background(), owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, n+1, stored.Version)
}

func TestAssistantService_ListIsOwnerScoped(t *testing.T) {
	f := newAssistantFixture(t)
	alice, bob := uuid.New(), uuid.New()

	_, err := f.svc.Create(context.Background(), alice, frontDesk())
	require.NoError(t, err)

	list, err := f.svc.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Front Desk", list[0].Name)

	list, err = f.svc.List(context.Background(), bob)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = f.svc.Get(context.Background(), bob, uuid.New())
	assert.ErrorIs(t, err, ErrAssistantNotFound)
}
