package allocator

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestFormatting(t *testing.T) {
	assert.Equal(t, "UNI_0001", FormatUniversityID(1).String())
	assert.Equal(t, "UNI_0042", FormatUniversityID(42).String())
	assert.Equal(t, "HEC_EMP_0007", FormatEmployeeID(7).String())
	assert.Equal(t, "DEG_UNI_0001_000123", FormatDegreeID("UNI_0001", 123).String())
	assert.Equal(t, "USR_UNI_0002_0003", FormatStaffID("UNI_0002", 3).String())
	assert.Equal(t, "DEPT_0004", FormatDepartmentID(4).String())
	assert.Equal(t, "HEC-ATT-000009", FormatAttestationNumber(9))
}

func TestInMemoryNext(t *testing.T) {
	ctx := context.Background()
	a := NewInMemory()

	t.Run("monotonic per scope", func(t *testing.T) {
		for want := uint64(1); want <= 5; want++ {
			got, err := a.Next(ctx, ScopeUniversity)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("scopes are independent", func(t *testing.T) {
		got, err := a.Next(ctx, DegreeScope("UNI_0001"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), got)

		got, err = a.Next(ctx, DegreeScope("UNI_0002"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), got)
	})

	t.Run("seed never rewinds", func(t *testing.T) {
		a.Seed(ScopeEmployee, 10)
		a.Seed(ScopeEmployee, 4)
		got, err := a.Next(ctx, ScopeEmployee)
		require.NoError(t, err)
		assert.Equal(t, uint64(11), got)
	})
}

// TestInMemoryNext_Concurrent is the uniqueness property: N parallel callers
// on one scope receive N distinct, gap-free sequence numbers.
func TestInMemoryNext_Concurrent(t *testing.T) {
	const callers = 128
	a := NewInMemory()

	var mu sync.Mutex
	seen := make([]uint64, 0, callers)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			n, err := a.Next(ctx, "UNI")
			if err != nil {
				return err
			}
			mu.Lock()
			seen = append(seen, n)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	require.Len(t, seen, callers)
	for i, n := range seen {
		assert.Equal(t, uint64(i+1), n, "duplicate or gap at position %d", i)
	}
}
