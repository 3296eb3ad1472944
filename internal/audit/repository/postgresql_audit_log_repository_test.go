package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/grants/internal/audit/domain"
	"github.com/allisson/grants/internal/testutil"
)

func newAuditLog(actorID, targetUserID uuid.UUID, action domain.Action) *domain.AuditLog {
	return &domain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorID:      actorID,
		ActorRole:    domain.ActorRoleAdmin,
		Action:       action,
		TargetUserID: targetUserID,
		SourceIP:     "198.51.100.10",
		Detail:       "support investigation into reported issue",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestNewPostgreSQLAuditLogRepository(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLAuditLogRepository{}, repo)
}

func TestPostgreSQLAuditLogRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	auditLog := newAuditLog(uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), domain.ActionRequestCreated)
	requestID := uuid.Must(uuid.NewV7())
	auditLog.RequestID = &requestID

	require.NoError(t, repo.Create(ctx, auditLog))

	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE id = $1`, auditLog.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgreSQLAuditLogRepository_Create_NilRequestID(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	// account_disabled entries have no request context
	auditLog := newAuditLog(uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), domain.ActionAccountDisabled)
	require.NoError(t, repo.Create(ctx, auditLog))

	found, err := repo.List(ctx, domain.ListFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Nil(t, found[0].RequestID)
}

func TestPostgreSQLAuditLogRepository_List(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	actorID := uuid.Must(uuid.NewV7())
	targetUserID := uuid.Must(uuid.NewV7())

	first := newAuditLog(actorID, targetUserID, domain.ActionRequestCreated)
	first.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	second := newAuditLog(actorID, targetUserID, domain.ActionRequestGranted)
	second.CreatedAt = time.Now().UTC().Add(-time.Hour)
	other := newAuditLog(uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), domain.ActionAccessUsed)

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	t.Run("NoFilter_NewestFirst", func(t *testing.T) {
		found, err := repo.List(ctx, domain.ListFilter{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, other.ID, found[0].ID)
		assert.Equal(t, second.ID, found[1].ID)
		assert.Equal(t, first.ID, found[2].ID)
	})

	t.Run("ByTargetUser", func(t *testing.T) {
		found, err := repo.List(ctx, domain.ListFilter{TargetUserID: &targetUserID}, 0, 10)
		require.NoError(t, err)
		require.Len(t, found, 2)
		for _, entry := range found {
			assert.Equal(t, targetUserID, entry.TargetUserID)
		}
	})

	t.Run("ByAction", func(t *testing.T) {
		action := domain.ActionRequestGranted
		found, err := repo.List(ctx, domain.ListFilter{Action: &action}, 0, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, second.ID, found[0].ID)
	})

	t.Run("ByTimeRange", func(t *testing.T) {
		from := time.Now().UTC().Add(-90 * time.Minute)
		to := time.Now().UTC().Add(-30 * time.Minute)
		found, err := repo.List(ctx, domain.ListFilter{CreatedAtFrom: &from, CreatedAtTo: &to}, 0, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, second.ID, found[0].ID)
	})

	t.Run("Pagination", func(t *testing.T) {
		found, err := repo.List(ctx, domain.ListFilter{}, 1, 1)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, second.ID, found[0].ID)
	})

	t.Run("Empty", func(t *testing.T) {
		unknownActor := uuid.Must(uuid.NewV7())
		found, err := repo.List(ctx, domain.ListFilter{ActorID: &unknownActor}, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
