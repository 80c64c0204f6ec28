package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"student-records/internal/client"
	"student-records/internal/student"
	"student-records/testing/testapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestClient_CRUD(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	created, err := c.Create(ctx, student.CreateStudentRequest{
		Name:  "Alice Smith",
		Email: "alice@example.com",
		GPA:   ptr(3.5),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.GPA)
	assert.InDelta(t, 3.5, *created.GPA, 0.001)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	updated, err := c.Update(ctx, created.ID, student.UpdateStudentRequest{PhoneNumber: ptr("5551234567")})
	require.NoError(t, err)
	require.NotNil(t, updated.PhoneNumber)
	assert.Equal(t, "5551234567", *updated.PhoneNumber)
	assert.Equal(t, "Alice Smith", updated.Name)

	require.NoError(t, c.Delete(ctx, created.ID))

	_, err = c.Get(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
}

func TestClient_ServerErrorsCarryMessage(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.Create(ctx, student.CreateStudentRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = c.Create(ctx, student.CreateStudentRequest{Name: "Bob", Email: "bob@example.com"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Student email already exists", apiErr.Message)

	_, err = c.Create(ctx, student.CreateStudentRequest{Name: "Bob"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Name and email are required", apiErr.Message)
}

func TestClient_NonJSONErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).List(context.Background(), "")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_ListIsCachedPerSearchTerm(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.Create(ctx, student.CreateStudentRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = c.Create(ctx, student.CreateStudentRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	base := srv.Hits()

	all, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = c.List(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, base+1, srv.Hits(), "blank search shares the list-all entry")

	matches, err := c.List(ctx, "ali")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Alice", matches[0].Name)

	_, err = c.List(ctx, "ali")
	require.NoError(t, err)
	assert.Equal(t, base+2, srv.Hits())
}

func TestClient_MutationInvalidatesEveryList(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	all, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = c.List(ctx, "ali")
	require.NoError(t, err)

	created, err := c.Create(ctx, student.CreateStudentRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	all, err = c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	matches, err := c.List(ctx, "ali")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, c.Delete(ctx, created.ID))
	all, err = c.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClient_FailedMutationKeepsCache(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.List(ctx, "")
	require.NoError(t, err)
	hits := srv.Hits()

	require.Error(t, c.Delete(ctx, 999))
	_, err = c.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, hits+1, srv.Hits(), "only the failed delete reached the server")
}

func TestClient_ConcurrentReads(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.Create(ctx, student.CreateStudentRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := c.List(ctx, "")
			assert.NoError(t, err)
			assert.Len(t, list, 1)
		}()
	}
	wg.Wait()
}

func TestClient_ListInFlightDuringMutationIsNotCached(t *testing.T) {
	handler := testapi.NewHandler(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var held atomic.Bool

	// the first GET is answered from a snapshot taken before the write, and
	// only delivered once the write has completed
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !held.CompareAndSwap(false, true) {
			handler.ServeHTTP(w, r)
			return
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		close(entered)
		<-release

		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.Create(ctx, student.CreateStudentRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	type result struct {
		students []student.Student
		err      error
	}
	inFlight := make(chan result, 1)
	go func() {
		list, err := c.List(ctx, "")
		inFlight <- result{list, err}
	}()

	<-entered
	_, err = c.Create(ctx, student.CreateStudentRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	close(release)

	stale := <-inFlight
	require.NoError(t, stale.err)
	assert.Len(t, stale.students, 1)

	fresh, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "a read issued after the create must see it")
}

func TestClient_ListResultIsACopy(t *testing.T) {
	srv := testapi.NewServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.Create(ctx, student.CreateStudentRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	first, err := c.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Name = "Mallory"

	second, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", second[0].Name)

	second[0].Name = "Eve"
	third, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", third[0].Name)
}
