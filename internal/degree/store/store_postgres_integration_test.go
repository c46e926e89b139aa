//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sanad/internal/degree/models"
	"sanad/internal/degree/store"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
	"sanad/pkg/testutil/containers"
)

type PostgresDegreeStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresDegreeStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDegreeStoreSuite))
}

func (s *PostgresDegreeStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	_, err := s.postgres.DB.Exec(store.Schema)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresDegreeStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "degrees"))
}

func (s *PostgresDegreeStoreSuite) newRecord(id domain.DegreeID, universityID domain.UniversityID, nationalID string) *models.DegreeRecord {
	d, err := models.NewDegreeRecord(
		id, universityID, "Test University",
		models.Student{
			Name:               "Hassan Raza",
			FatherName:         "Akbar Raza",
			RollNumber:         "BCS-2020-013",
			RegistrationNumber: "2020-UNI-0456",
			NationalID:         nationalID,
		},
		models.Program{Name: "BS Computer Science", Type: "BS", Department: "Computer Science"},
		models.Academic{CGPA: 3.4},
		"", "", "USR_UNI_0001_0001", domain.RoleRegistrar,
		time.Now().UTC(),
	)
	s.Require().NoError(err)
	return d
}

// =====================================================================
// Create / FindByID
// =====================================================================

func (s *PostgresDegreeStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	d := s.newRecord("DEG_UNI_0001_000001", "UNI_0001", "61101-1234567-1")
	s.Require().NoError(s.store.Create(ctx, d))

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(d.ID, got.ID)
	s.Equal(models.StatePendingVerification, got.State)
	s.Equal("Hassan Raza", got.Student.Name)
	s.Len(got.Approvals, 1)
}

func (s *PostgresDegreeStoreSuite) TestCreateDuplicateID() {
	ctx := context.Background()
	d := s.newRecord("DEG_UNI_0001_000001", "UNI_0001", "61101-1234567-1")
	s.Require().NoError(s.store.Create(ctx, d))

	err := s.store.Create(ctx, d)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresDegreeStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), "DEG_UNI_0001_999999")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// =====================================================================
// Listing and search
// =====================================================================

func (s *PostgresDegreeStoreSuite) TestSearch() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newRecord("DEG_UNI_0001_000001", "UNI_0001", "61101-1111111-1")))
	s.Require().NoError(s.store.Create(ctx, s.newRecord("DEG_UNI_0001_000002", "UNI_0001", "61101-2222222-2")))
	s.Require().NoError(s.store.Create(ctx, s.newRecord("DEG_UNI_0002_000001", "UNI_0002", "61101-3333333-3")))

	byUniversity, err := s.store.ListByUniversity(ctx, "UNI_0001")
	s.Require().NoError(err)
	s.Len(byUniversity, 2)

	byStudent, err := s.store.ListByStudent(ctx, "61101-3333333-3")
	s.Require().NoError(err)
	s.Require().Len(byStudent, 1)
	s.Equal(domain.DegreeID("DEG_UNI_0002_000001"), byStudent[0].ID)

	filtered, err := s.store.Search(ctx, store.Filter{UniversityID: "UNI_0001", ProgramType: "bs"})
	s.Require().NoError(err)
	s.Len(filtered, 2)

	none, err := s.store.Search(ctx, store.Filter{State: models.StateVerified})
	s.Require().NoError(err)
	s.Empty(none)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(3, count)
}

// =====================================================================
// Execute
// =====================================================================

func (s *PostgresDegreeStoreSuite) TestExecutePersistsMutation() {
	ctx := context.Background()
	d := s.newRecord("DEG_UNI_0001_000001", "UNI_0001", "61101-1234567-1")
	s.Require().NoError(s.store.Create(ctx, d))

	updated, err := s.store.Execute(ctx, d.ID,
		func(rec *models.DegreeRecord) error { return rec.CanVerify() },
		func(rec *models.DegreeRecord) {
			rec.ApplyVerification("USR_UNI_0001_0002", domain.RoleVC, "checked", time.Now().UTC())
		},
	)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, updated.State)

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, got.State)
	s.Len(got.Approvals, 2)
}

func (s *PostgresDegreeStoreSuite) TestExecuteValidationFailureLeavesRow() {
	ctx := context.Background()
	d := s.newRecord("DEG_UNI_0001_000001", "UNI_0001", "61101-1234567-1")
	s.Require().NoError(s.store.Create(ctx, d))

	_, err := s.store.Execute(ctx, d.ID,
		func(rec *models.DegreeRecord) error { return rec.CanAttest() },
		func(rec *models.DegreeRecord) { s.Fail("mutate must not run after failed validation") },
	)
	s.Require().Error(err)

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePendingVerification, got.State)
}

// TestExecuteConcurrentTransition races many verifications against one
// record. The row lock must admit exactly one winner.
func (s *PostgresDegreeStoreSuite) TestExecuteConcurrentTransition() {
	ctx := context.Background()
	d := s.newRecord("DEG_UNI_0001_000001", "UNI_0001", "61101-1234567-1")
	s.Require().NoError(s.store.Create(ctx, d))

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, d.ID,
				func(rec *models.DegreeRecord) error { return rec.CanVerify() },
				func(rec *models.DegreeRecord) {
					rec.ApplyVerification(fmt.Sprintf("USR_UNI_0001_%04d", i+1), domain.RoleVC, "", time.Now().UTC())
				},
			)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, got.State)
	s.Len(got.Approvals, 2)
	s.Equal(2, got.Version)
}
